package gitrepo_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gitsyncd/gitsyncd/internal/gitrepo"
)

const (
	testFallbackHostConstant = "github.com"
	testFallbackPortConstant = 443
)

func TestParseRemoteURL(testInstance *testing.T) {
	testCases := []struct {
		name        string
		remote      string
		expectError bool
		expected    gitrepo.RemoteURL
	}{
		{
			name:     "scp_like",
			remote:   "git@github.com:owner/notes.git",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolSSH, Host: "github.com", Path: "owner/notes.git"},
		},
		{
			name:     "ssh_with_port",
			remote:   "ssh://git@gitea.internal:2222/owner/notes.git",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolSSH, Host: "gitea.internal", Port: 2222, Path: "owner/notes.git"},
		},
		{
			name:     "https",
			remote:   "https://github.com/owner/notes.git",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolHTTPS, Host: "github.com", Path: "owner/notes.git"},
		},
		{
			name:     "git_protocol",
			remote:   "git://mirror.example.org/notes.git",
			expected: gitrepo.RemoteURL{Protocol: gitrepo.RemoteProtocolGit, Host: "mirror.example.org", Path: "notes.git"},
		},
		{
			name:        "empty",
			remote:      "   ",
			expectError: true,
		},
		{
			name:        "local_path",
			remote:      "/var/repos/notes.git",
			expectError: true,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			parsedRemote, parseError := gitrepo.ParseRemoteURL(testCase.remote)
			if testCase.expectError {
				require.Error(testInstance, parseError)
				require.IsType(testInstance, gitrepo.RemoteURLParseError{}, parseError)
				return
			}
			require.NoError(testInstance, parseError)
			require.Equal(testInstance, testCase.expected, parsedRemote)
		})
	}
}

func TestProbeEndpointDerivation(testInstance *testing.T) {
	fallbackEndpoint := gitrepo.ProbeEndpoint{Host: testFallbackHostConstant, Port: testFallbackPortConstant}

	testCases := []struct {
		name     string
		remote   string
		expected gitrepo.ProbeEndpoint
	}{
		{
			name:     "ssh_default_port",
			remote:   "git@github.com:owner/notes.git",
			expected: gitrepo.ProbeEndpoint{Host: "github.com", Port: 22},
		},
		{
			name:     "ssh_explicit_port",
			remote:   "ssh://git@gitea.internal:2222/owner/notes.git",
			expected: gitrepo.ProbeEndpoint{Host: "gitea.internal", Port: 2222},
		},
		{
			name:     "https_default_port",
			remote:   "https://gitlab.com/owner/notes.git",
			expected: gitrepo.ProbeEndpoint{Host: "gitlab.com", Port: 443},
		},
		{
			name:     "unparseable_uses_fallback",
			remote:   "/var/repos/notes.git",
			expected: fallbackEndpoint,
		},
		{
			name:     "empty_uses_fallback",
			remote:   "",
			expected: fallbackEndpoint,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			derivedEndpoint := gitrepo.DeriveProbeEndpoint(testCase.remote, fallbackEndpoint)
			require.Equal(testInstance, testCase.expected, derivedEndpoint)
		})
	}
}
