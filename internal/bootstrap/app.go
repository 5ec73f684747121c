package bootstrap

import (
	"neupages/internal/bootstrap/config"
)

// App bundles what commands need beyond the usecase service. All durable
// state lives on the filesystem, so there is nothing to tear down here
// beyond what fx lifecycle hooks already close.
type App struct {
	Config config.Config
}
