// Effect pipeline selection by configuration name
package backend

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/microsoft/filter-effects/internal/config"
	"github.com/microsoft/filter-effects/internal/effects"
	"github.com/microsoft/filter-effects/internal/effects/opencv"
)

// Names lists the accepted backend names.
func Names() []string {
	return []string{config.BackendSoft, config.BackendOpenCV}
}

// New returns the pipeline registered under name.
func New(name string, logger logrus.FieldLogger) (effects.Pipeline, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case config.BackendSoft, "":
		return effects.NewSoft(logger), nil
	case config.BackendOpenCV:
		return opencv.New(logger), nil
	}
	return nil, fmt.Errorf("unknown backend %q, expected one of %s", name, strings.Join(Names(), ", "))
}
