package poststep

import (
	"strings"
	"testing"

	"github.com/iver-wharf/wharf-postbuild/pkg/result"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestParseConfig(t *testing.T) {
	var tests = []struct {
		name string
		yaml string
		want Config
	}{
		{
			name: "behavior as number",
			yaml: "script: manager.buildUnstable()\nbehavior: 2\nrunForMatrixParent: true\n",
			want: Config{Version: 1, Script: "manager.buildUnstable()", Behavior: BehaviorFailure, RunForMatrixParent: true},
		},
		{
			name: "behavior as name",
			yaml: "script: pass\nbehavior: unstable\n",
			want: Config{Version: 1, Script: "pass", Behavior: BehaviorUnstable},
		},
		{
			name: "defaults",
			yaml: "script: pass\n",
			want: Config{Version: 1, Script: "pass", Behavior: BehaviorSuccess},
		},
		{
			name: "empty document",
			yaml: "",
			want: Config{Version: 1},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseConfig(strings.NewReader(tc.yaml))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseConfig_InvalidBehavior(t *testing.T) {
	_, err := ParseConfig(strings.NewReader("behavior: 5\n"))
	assert.Error(t, err)
	_, err = ParseConfig(strings.NewReader("behavior: ABORTED\n"))
	assert.Error(t, err)
}

func TestConfig_UpgradeWhenNested(t *testing.T) {
	var doc struct {
		Step Config `yaml:"step"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("step:\n  script: pass\n"), &doc))
	assert.Equal(t, CurrentConfigVersion, doc.Step.Version)
}

func TestBehavior_Result(t *testing.T) {
	assert.Equal(t, result.Success, BehaviorSuccess.Result())
	assert.Equal(t, result.Unstable, BehaviorUnstable.Result())
	assert.Equal(t, result.Failure, BehaviorFailure.Result())
}

func TestBehavior_MarshalYAML(t *testing.T) {
	out, err := yaml.Marshal(Config{Script: "pass", Behavior: BehaviorUnstable})
	require.NoError(t, err)
	assert.Equal(t, "script: pass\nbehavior: UNSTABLE\nrunForMatrixParent: false\n", string(out))
}
