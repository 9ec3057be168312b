package manifest

const (
	// DefaultHTTPBase is the base path used when the application trigger omits it
	DefaultHTTPBase = "/"

	// DefaultWagiEntrypoint is the function invoked by the Wagi executor when none is given
	DefaultWagiEntrypoint = "_start"

	// DefaultWagiArgv is the argv template used by the Wagi executor when none is given
	DefaultWagiArgv = "${SCRIPT_NAME} ${ARGS}"
)

// WagiSubstitutions are the tokens allowed in a Wagi argv template
var WagiSubstitutions = []string{"SCRIPT_NAME", "ARGS"}

// ApplicationTrigger is the application-wide trigger declaration
type ApplicationTrigger interface {
	isApplicationTrigger()
	TriggerType() string
}

// HTTPTriggerConfig is the application-level HTTP trigger
type HTTPTriggerConfig struct {
	Base string
}

func (HTTPTriggerConfig) isApplicationTrigger() {}

// TriggerType implements ApplicationTrigger
func (HTTPTriggerConfig) TriggerType() string { return "http" }

// ComponentTrigger is the resolved per-component trigger configuration
type ComponentTrigger interface {
	isComponentTrigger()
}

// HTTPConfig routes HTTP requests to a component
type HTTPConfig struct {
	Route    string
	Executor HTTPExecutor
}

func (HTTPConfig) isComponentTrigger() {}

// HTTPExecutor is the calling convention used to invoke an HTTP component
type HTTPExecutor interface {
	isHTTPExecutor()
	Name() string
}

// SpinExecutor invokes the component through the Spin HTTP interface
type SpinExecutor struct{}

func (SpinExecutor) isHTTPExecutor() {}

// Name implements HTTPExecutor
func (SpinExecutor) Name() string { return "spin" }

// WagiExecutor invokes the component CGI-style
type WagiExecutor struct {
	Entrypoint string
	Argv       string
}

func (WagiExecutor) isHTTPExecutor() {}

// Name implements HTTPExecutor
func (WagiExecutor) Name() string { return "wagi" }
