package constants

// ServingPort is the port the serving process listens on inside a cluster.
// It is part of the serving-process contract and is not user-configurable.
const ServingPort = 8080

const (
	TemplateServingRun = "serving-run"

	// DefaultServingRunTemplate starts the serving process with the model
	// path as its startup parameter. The path is user input and runs in a
	// shell on the cluster, so it is always quoted.
	DefaultServingRunTemplate = "vllm serve --model_name_or_path {{shellquote .ModelPath}} --port {{.Port}}"
	DefaultServingSetup       = "pip install vllm"
	DefaultTaskName           = "vllm_serving"

	ModelPathEnv = "MODEL_PATH"
)
