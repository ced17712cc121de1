// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

const templateHeader = `# beamopt configuration.
# Weights are keyed by penalty name; every soft rule of the reference
# protocol needs one. Environment variables BEAMOPT_<SECTION>_<KEY>
# override scalar keys, e.g. BEAMOPT_SOLVER_TIME_LIMIT=30s.
`

// WriteTemplate writes cfg as a commented YAML document.
func WriteTemplate(w io.Writer, cfg *Config) error {
	if _, err := io.WriteString(w, templateHeader); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("config: encode template: %w", err)
	}

	return enc.Close()
}
