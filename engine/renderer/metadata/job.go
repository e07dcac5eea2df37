package metadata

/** Definition for the body of a job. */
type JobStart func(input interface{}) (interface{}, error)

/** Definition for completion of a job. */
type JobOnComplete func(result interface{})

/** Definition for failure of a job. */
type JobOnFailure func(err error)

/**
 * @brief Determines the order jobs of one batch are submitted in. Higher
 * priorities are submitted first.
 */
type JobPriority int

const (
	/** @brief The lowest-priority job, used for things that can wait such as journal flushing. */
	JOB_PRIORITY_LOW JobPriority = iota
	/** @brief A normal-priority job, every prim sync pass uses it. */
	JOB_PRIORITY_NORMAL
	/** @brief The highest-priority job, used for instancers that prims depend on. */
	JOB_PRIORITY_HIGH
)

/**
 * @brief Describes a job to be run.
 */
type JobTask struct {
	/** @brief Name used in logs, usually the prim path. */
	Name string
	/** @brief The priority of this job. */
	Priority JobPriority
	/** @brief Invoked when the job starts. Required. */
	OnStart JobStart
	/** @brief Invoked with the result when the job succeeds. Optional. */
	OnComplete JobOnComplete
	/** @brief Invoked when the job fails. Optional. */
	OnFailure JobOnFailure
	/** @brief Data passed to OnStart. */
	InputParams interface{}
}
