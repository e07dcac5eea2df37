package metadata

/** @brief The name of the default material. */
const DefaultMaterialName string = "default"

/**
 * @brief A material known to the render scene. Only the identity matters to
 * the sync layer, shading is the scene's business.
 */
type Material struct {
	/** @brief Scene path of the material. */
	Path string
	/** @brief Material generation, incremented when the material is edited. */
	Generation uint32
	/** @brief Debug colour as a hex string. */
	Colour string
}

/**
 * @brief Binds a material to a subset of the faces of a geometry.
 */
type FacesetMaterial struct {
	Faces    []int32
	Material *Material
	Props    OptionSet
}
