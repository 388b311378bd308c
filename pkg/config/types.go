/*-
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mfreeman451/detectorradar/pkg/models"
)

var errInvalidConfig = errors.New("invalid configuration")

// Duration accepts "1.5s" style strings or integer nanoseconds in files,
// and is usable as a pflag.Value.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		return d.Set(value)
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!int" {
		var n int64
		if err := node.Decode(&n); err != nil {
			return err
		}

		*d = Duration(time.Duration(n))

		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("%w: %w", errInvalidDuration, err)
	}

	return d.Set(s)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

func (d *Duration) Set(s string) error {
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidDuration, err)
	}

	*d = Duration(dur)

	return nil
}

func (*Duration) Type() string {
	return "duration"
}

// LogConfig selects the zap encoder and level.
type LogConfig struct {
	Format string `json:"format" yaml:"format" default:"console"`
	Level  string `json:"level" yaml:"level" default:"info"`
}

// ScanConfig drives discovery across every registered detector type.
type ScanConfig struct {
	Timeout        Duration `json:"timeout" yaml:"timeout"`
	DBPath         string   `json:"db_path" yaml:"db_path"`
	MaxConcurrency int      `json:"max_concurrency" yaml:"max_concurrency" default:"256"`
	Rate           float64  `json:"rate" yaml:"rate"`
	PruneAfter     Duration `json:"prune_after" yaml:"prune_after"`
}

func (s *ScanConfig) SetDefaults() {
	if s.Timeout == 0 {
		s.Timeout = Duration(2 * time.Second)
	}
}

// APIConfig configures the optional progress API.
type APIConfig struct {
	Listen         string `json:"listen" yaml:"listen"`
	MaxConnections int    `json:"max_connections" yaml:"max_connections" default:"32"`
}

// Config is the root of a detectorradar config file. Flags given on the
// command line take precedence over file values.
type Config struct {
	Log     LogConfig                `json:"log" yaml:"log"`
	Scan    ScanConfig               `json:"scan" yaml:"scan"`
	Acquire models.AcquisitionConfig `json:"acquire" yaml:"acquire"`
	API     APIConfig                `json:"api" yaml:"api"`
	// URLs maps a detector type to the URL used when --url is absent.
	URLs map[string]string `json:"urls" yaml:"urls"`
}

func (c *Config) Validate() error {
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", errInvalidConfig, c.Log.Format)
	}

	if c.Scan.Timeout <= 0 {
		return fmt.Errorf("%w: scan timeout must be positive", errInvalidConfig)
	}

	if c.Scan.MaxConcurrency < 0 || c.Scan.Rate < 0 {
		return fmt.Errorf("%w: scan pacing must not be negative", errInvalidConfig)
	}

	if err := c.Acquire.Validate(); err != nil {
		return fmt.Errorf("%w: %w", errInvalidConfig, err)
	}

	return nil
}
