package a3interface

import (
	"github.com/dmt-mods/placement/internal/dispatcher"
)

// outputSize is the buffer handed to the host for query replies.
const outputSize = 20480

type configStruct struct {
	// rvExtensionVersion is returned when the host first loads the extension.
	rvExtensionVersion string

	// extensionName is the name callbacks are tagged with.
	extensionName string

	dispatcher *dispatcher.Dispatcher
}

// Config defines how calls to this extension will be handled
var Config = configStruct{
	rvExtensionVersion: "No version set",
	extensionName:      "dmt_placement",
}

// SetVersion sets the version string returned by RVExtensionVersion.
func SetVersion(version string) {
	Config.rvExtensionVersion = version
}

// SetExtensionName sets the name outbound callbacks are tagged with.
func SetExtensionName(name string) {
	Config.extensionName = name
}

// SetDispatcher sets the event dispatcher for handling commands
func SetDispatcher(d *dispatcher.Dispatcher) {
	Config.dispatcher = d
}

// GetDispatcher returns the configured dispatcher, or nil if not set
func GetDispatcher() *dispatcher.Dispatcher {
	return Config.dispatcher
}
