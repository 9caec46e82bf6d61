package gitrepo

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	sshProtocolPrefixConstant           = "ssh://"
	gitProtocolPrefixConstant           = "git://"
	httpProtocolPrefixConstant          = "http://"
	httpsProtocolPrefixConstant         = "https://"
	gitUserPrefixConstant               = "git@"
	sshUserDelimiterConstant            = "@"
	sshPathDelimiterConstant            = ":"
	pathSeparatorConstant               = "/"
	portDelimiterConstant               = ":"
	remoteURLParseErrorTemplateConstant = "%s: %s"
	invalidRemoteURLMessageConstant     = "invalid remote url"
	requiredValueMessageConstant        = "value required"
	sshDefaultPortNumberConstant        = 22
	httpDefaultPortNumberConstant       = 80
	httpsDefaultPortNumberConstant      = 443
	gitDefaultPortNumberConstant        = 9418
)

// RemoteProtocol enumerates supported git remote protocols.
type RemoteProtocol string

// Supported remote protocols.
const (
	RemoteProtocolSSH   RemoteProtocol = RemoteProtocol("ssh")
	RemoteProtocolGit   RemoteProtocol = RemoteProtocol("git")
	RemoteProtocolHTTP  RemoteProtocol = RemoteProtocol("http")
	RemoteProtocolHTTPS RemoteProtocol = RemoteProtocol("https")
)

// RemoteURL represents a structured git remote URL.
type RemoteURL struct {
	Protocol RemoteProtocol
	Host     string
	Port     int
	Path     string
}

// ProbeEndpoint names the host and port probed by the connectivity gate.
type ProbeEndpoint struct {
	Host string
	Port int
}

// RemoteURLParseError indicates a remote string could not be parsed.
type RemoteURLParseError struct {
	Input   string
	Message string
}

// Error describes the parse failure.
func (parseError RemoteURLParseError) Error() string {
	return fmt.Sprintf(remoteURLParseErrorTemplateConstant, parseError.Input, parseError.Message)
}

var protocolDefaultPortMapping = map[RemoteProtocol]int{
	RemoteProtocolSSH:   sshDefaultPortNumberConstant,
	RemoteProtocolGit:   gitDefaultPortNumberConstant,
	RemoteProtocolHTTP:  httpDefaultPortNumberConstant,
	RemoteProtocolHTTPS: httpsDefaultPortNumberConstant,
}

// ParseRemoteURL converts a textual remote URL into a structured representation.
func ParseRemoteURL(remote string) (RemoteURL, error) {
	trimmedRemote := strings.TrimSpace(remote)
	if len(trimmedRemote) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: requiredValueMessageConstant}
	}

	switch {
	case strings.HasPrefix(trimmedRemote, sshProtocolPrefixConstant):
		return parseAuthorityRemote(RemoteProtocolSSH, strings.TrimPrefix(trimmedRemote, sshProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, gitProtocolPrefixConstant):
		return parseAuthorityRemote(RemoteProtocolGit, strings.TrimPrefix(trimmedRemote, gitProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpProtocolPrefixConstant):
		return parseAuthorityRemote(RemoteProtocolHTTP, strings.TrimPrefix(trimmedRemote, httpProtocolPrefixConstant))
	case strings.HasPrefix(trimmedRemote, httpsProtocolPrefixConstant):
		return parseAuthorityRemote(RemoteProtocolHTTPS, strings.TrimPrefix(trimmedRemote, httpsProtocolPrefixConstant))
	case strings.Contains(trimmedRemote, sshUserDelimiterConstant):
		return parseSCPRemote(trimmedRemote)
	default:
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}
}

// parseAuthorityRemote handles protocol://[user@]host[:port]/path forms.
func parseAuthorityRemote(protocol RemoteProtocol, remainder string) (RemoteURL, error) {
	authority := remainder
	path := ""
	if slashIndex := strings.Index(remainder, pathSeparatorConstant); slashIndex >= 0 {
		authority = remainder[:slashIndex]
		path = remainder[slashIndex+1:]
	}

	if userSplitIndex := strings.LastIndex(authority, sshUserDelimiterConstant); userSplitIndex >= 0 {
		authority = authority[userSplitIndex+1:]
	}

	host := authority
	port := 0
	if portSplitIndex := strings.LastIndex(authority, portDelimiterConstant); portSplitIndex >= 0 {
		parsedPort, portParseError := strconv.Atoi(authority[portSplitIndex+1:])
		if portParseError != nil {
			return RemoteURL{}, RemoteURLParseError{Input: remainder, Message: invalidRemoteURLMessageConstant}
		}
		host = authority[:portSplitIndex]
		port = parsedPort
	}

	if len(host) == 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remainder, Message: invalidRemoteURLMessageConstant}
	}

	return RemoteURL{Protocol: protocol, Host: host, Port: port, Path: path}, nil
}

// parseSCPRemote handles scp-like user@host:path forms.
func parseSCPRemote(remote string) (RemoteURL, error) {
	userSplitIndex := strings.Index(remote, sshUserDelimiterConstant)
	hostAndPath := remote[userSplitIndex+1:]

	pathSplitIndex := strings.Index(hostAndPath, sshPathDelimiterConstant)
	if pathSplitIndex <= 0 {
		return RemoteURL{}, RemoteURLParseError{Input: remote, Message: invalidRemoteURLMessageConstant}
	}

	return RemoteURL{
		Protocol: RemoteProtocolSSH,
		Host:     hostAndPath[:pathSplitIndex],
		Path:     hostAndPath[pathSplitIndex+1:],
	}, nil
}

// ProbeEndpoint resolves the host and protocol-appropriate port for the remote.
func (remote RemoteURL) ProbeEndpoint() ProbeEndpoint {
	port := remote.Port
	if port == 0 {
		port = protocolDefaultPortMapping[remote.Protocol]
	}
	return ProbeEndpoint{Host: remote.Host, Port: port}
}

// DeriveProbeEndpoint resolves the endpoint probed for the given remote URL,
// falling back to the supplied endpoint when the remote cannot be parsed.
func DeriveProbeEndpoint(remote string, fallback ProbeEndpoint) ProbeEndpoint {
	parsedRemote, parseError := ParseRemoteURL(remote)
	if parseError != nil {
		return fallback
	}
	return parsedRemote.ProbeEndpoint()
}
