package math

// Vec3 represents a 3D vector
type Vec3 struct {
	X, Y, Z float32
}

/** @brief a 4x4 matrix, row-vector convention (translation in elements 12-14). */
type Mat4 struct {
	/** @brief The matrix elements */
	Data [16]float32
}

/**
 * @brief A transform sample at a given shutter time, used for motion blur.
 */
type TimedMat4 struct {
	/** @brief Time offset of the sample in frames, relative to the current frame. */
	Time float32
	/** @brief The world matrix at that time. */
	Matrix Mat4
}
