package params

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Fixed byte widths that hex config values are widened to before yaml decoding.
var hexArrayWidths = []int{4, 8, 16, 20, 32, 48, 64, 96}

// UnmarshalConfig reads a yaml chain config on top of the preset it names, or of the
// given base config when it names none.
func UnmarshalConfig(yamlFile []byte, conf *BeaconChainConfig) (*BeaconChainConfig, error) {
	if conf == nil {
		conf = MainnetConfig().Copy()
	} else {
		conf = conf.Copy()
	}
	hasConfigName := false
	lines := strings.Split(string(yamlFile), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "CONFIG_NAME") {
			hasConfigName = true
		}
		if isMinimalPresetLine(line) {
			conf = MinimalSpecConfig().Copy()
		}
		if !strings.HasPrefix(line, "#") && strings.Contains(line, "0x") {
			parts, err := ReplaceHexStringWithYAMLFormat(line)
			if err != nil {
				return nil, errors.Wrapf(err, "could not parse line %d", i+1)
			}
			lines[i] = strings.Join(parts, "\n")
		}
	}
	yamlFile = []byte(strings.Join(lines, "\n"))
	if err := yaml.UnmarshalStrict(yamlFile, conf); err != nil {
		if _, ok := err.(*yaml.TypeError); !ok {
			return nil, errors.Wrap(err, "failed to parse chain config yaml")
		}
		log.WithError(err).Error("There were some issues parsing the config from a yaml file")
	}
	if !hasConfigName {
		conf.ConfigName = "devnet"
	}
	if err := conf.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid chain config")
	}
	log.Debugf("Config file values: %+v", conf)
	return conf, nil
}

// LoadChainConfigFile load, convert hex values into valid param yaml format,
// unmarshal, and apply beacon chain config file.
func LoadChainConfigFile(configFilePath string, conf *BeaconChainConfig) error {
	yamlFile, err := os.ReadFile(configFilePath) // #nosec G304
	if err != nil {
		return errors.Wrap(err, "failed to read chain config file")
	}
	c, err := UnmarshalConfig(yamlFile, conf)
	if err != nil {
		return err
	}
	OverrideBeaconConfig(c)
	return nil
}

// ReplaceHexStringWithYAMLFormat will replace hex strings that the yaml parser will understand.
func ReplaceHexStringWithYAMLFormat(line string) ([]string, error) {
	parts := strings.Split(line, "0x")
	decoded, err := hex.DecodeString(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, errors.Wrap(err, "failed to decode hex string")
	}
	if len(decoded) == 1 {
		fixedByte, err := yaml.Marshal(decoded[0])
		if err != nil {
			return nil, err
		}
		parts[0] += string(fixedByte)
		return parts[:1], nil
	}
	for _, width := range hexArrayWidths {
		if len(decoded) > width {
			continue
		}
		arr := make([]byte, width)
		copy(arr, decoded)
		fixedByte, err := yaml.Marshal(toIntSlice(arr))
		if err != nil {
			return nil, err
		}
		parts[1] = string(fixedByte)
		return parts, nil
	}
	return nil, errors.Errorf("hex value of %d bytes is too long", len(decoded))
}

// yaml marshals []byte as a string, arrays of ints decode into both slices and fixed arrays.
func toIntSlice(b []byte) []int {
	out := make([]int, len(b))
	for i := range b {
		out[i] = int(b[i])
	}
	return out
}

func isMinimalPresetLine(line string) bool {
	return strings.HasPrefix(line, "PRESET_BASE: 'minimal'") ||
		strings.HasPrefix(line, `PRESET_BASE: "minimal"`) ||
		strings.HasPrefix(line, "PRESET_BASE: minimal") ||
		strings.HasPrefix(line, "# Minimal preset")
}
