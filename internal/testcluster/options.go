package testcluster

import (
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
)

// DefaultNumberOfNodes is the cluster size DefaultOptions asks for.
const DefaultNumberOfNodes = 4

// Options configures a simulated cluster.
type Options struct {
	// NumberOfNodes is how many nodes boot before the cluster is handed out.
	NumberOfNodes int
	// ClusterPartiallySeparated makes sniff responses omit the oldest node,
	// as if it were cut off from the rest of the cluster.
	ClusterPartiallySeparated bool
	// HostPublishAddress advertises "localhost/127.0.0.1:<port>" instead of
	// "127.0.0.1:<port>".
	HostPublishAddress bool
	// Handler replaces the canned handler on every node.
	Handler http.Handler
	// Logger receives boot and shutdown diagnostics at debug level.
	// Defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// DefaultOptions returns the options Build uses when given nil.
func DefaultOptions() Options {
	return Options{
		NumberOfNodes: DefaultNumberOfNodes,
	}
}

func (o *Options) validate() error {
	if o.NumberOfNodes < 0 {
		return &ConfigurationError{
			Field:  "NumberOfNodes",
			Reason: fmt.Sprintf("must not be negative, got %d", o.NumberOfNodes),
		}
	}
	return nil
}

// ConfigurationError reports an invalid argument caught before any node
// is started.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("testcluster: invalid %s: %s", e.Field, e.Reason)
}
