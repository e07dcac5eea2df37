package attrib

// Interpolation is the sharing granularity of an attribute over a primitive.
type Interpolation int

const (
	InterpolationConstant Interpolation = iota
	InterpolationUniform
	InterpolationVarying
	InterpolationVertex
	InterpolationFaceVarying
	InterpolationInstance
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationConstant:
		return "constant"
	case InterpolationUniform:
		return "uniform"
	case InterpolationVarying:
		return "varying"
	case InterpolationVertex:
		return "vertex"
	case InterpolationFaceVarying:
		return "faceVarying"
	case InterpolationInstance:
		return "instance"
	}
	return "unknown"
}

// Domain indexes the four attribute lists of a geometry.
type Domain int

const (
	// DomainVertex holds per face-corner attributes.
	DomainVertex Domain = iota
	// DomainPoint holds per point attributes shared between corners.
	DomainPoint
	DomainUniform
	DomainDetail

	NumDomains = 4
)

func (d Domain) String() string {
	return [...]string{"vertex", "point", "uniform", "detail"}[d]
}

// Interpolations lists the interpolation classes gathered into d.
func (d Domain) Interpolations() []Interpolation {
	switch d {
	case DomainVertex:
		return []Interpolation{InterpolationFaceVarying}
	case DomainPoint:
		return []Interpolation{InterpolationVertex, InterpolationVarying}
	case DomainUniform:
		return []Interpolation{InterpolationUniform}
	case DomainDetail:
		return []Interpolation{InterpolationConstant}
	}
	return nil
}

// DomainOf returns the domain an interpolation class is stored in.
func DomainOf(i Interpolation) (Domain, bool) {
	switch i {
	case InterpolationFaceVarying:
		return DomainVertex, true
	case InterpolationVertex, InterpolationVarying:
		return DomainPoint, true
	case InterpolationUniform:
		return DomainUniform, true
	case InterpolationConstant:
		return DomainDetail, true
	}
	return 0, false
}
