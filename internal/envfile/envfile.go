// Package envfile reads and rewrites the KEY=VALUE file that selects which
// LLM server the prompt tooling talks to.
//
// File layout (one setting per line, '#' disables a line):
//
//	#URL_GENERATE=http://localhost:11434     — local Ollama server (inactive)
//	URL_GENERATE=https://chat.hpc.fau.edu    — remote Open WebUI server (active)
//	API_KEY=sk-...                           — bearer token, remote only
//
// Every line is classified once (local url, remote url, other url, api key,
// other) and the Local/Remote transforms rewrite only the classified lines.
// Everything else round-trips byte for byte.
package envfile

import (
	"errors"
	"net"
	"net/url"
	"strings"

	"github.com/joho/godotenv"
)

const (
	// Marker disables a line when it prefixes the key.
	Marker = "#"

	// KeyURL holds the base URL of the selected server.
	KeyURL = "URL_GENERATE"

	// KeyAPIKey holds the bearer token for the remote server.
	KeyAPIKey = "API_KEY"
)

var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrConfigNotFound   = errors.New("config not found")
	ErrEmptyCredential  = errors.New("api key must not be empty")
)

// Kind is the classification of a single line.
type Kind int

const (
	KindOther Kind = iota
	KindLocalURL
	KindRemoteURL
	KindOtherURL
	KindAPIKey
)

func (k Kind) String() string {
	switch k {
	case KindLocalURL:
		return "local-url"
	case KindRemoteURL:
		return "remote-url"
	case KindOtherURL:
		return "other-url"
	case KindAPIKey:
		return "api-key"
	default:
		return "other"
	}
}

// Endpoints are the two server base URLs lines are classified against.
type Endpoints struct {
	Local  string // e.g. "http://localhost:11434"
	Remote string // e.g. "https://chat.hpc.fau.edu"
}

// Line is one line of the file. Raw never includes the line terminator.
type Line struct {
	Raw    string
	Key    string // empty for blank lines, comments and anything without KEY=
	Value  string // text after '=', undecoded
	Active bool

	cr bool // line ended in "\r\n"
}

// Document is a parsed file. Line order is the file order.
type Document struct {
	Lines []Line

	trailingNewline bool
}

// Parse splits data into lines. It never fails: lines it does not understand
// are kept as KindOther and written back unchanged.
func Parse(data []byte) *Document {
	d := &Document{}
	s := string(data)
	if s == "" {
		return d
	}
	if strings.HasSuffix(s, "\n") {
		d.trailingNewline = true
		s = strings.TrimSuffix(s, "\n")
	}
	for _, raw := range strings.Split(s, "\n") {
		d.Lines = append(d.Lines, parseLine(raw))
	}
	return d
}

func parseLine(raw string) Line {
	l := Line{Raw: raw}
	if strings.HasSuffix(raw, "\r") {
		l.cr = true
		l.Raw = strings.TrimSuffix(raw, "\r")
	}

	body := strings.TrimSpace(l.Raw)
	l.Active = true
	if strings.HasPrefix(body, Marker) {
		l.Active = false
		body = strings.TrimSpace(strings.TrimPrefix(body, Marker))
	}
	body = strings.TrimPrefix(body, "export ")

	idx := strings.Index(body, "=")
	if idx <= 0 {
		return Line{Raw: l.Raw, cr: l.cr}
	}
	key := strings.TrimSpace(body[:idx])
	if !validKey(key) {
		return Line{Raw: l.Raw, cr: l.cr}
	}
	l.Key = key
	l.Value = body[idx+1:]
	return l
}

func validKey(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// ParseValue decodes the value part of a KEY=VALUE line the way a dotenv
// loader would (quotes, inline comments). Falls back to the trimmed text.
func ParseValue(key, value string) string {
	m, err := godotenv.Unmarshal(key + "=" + value)
	if err != nil {
		return strings.TrimSpace(value)
	}
	if v, ok := m[key]; ok {
		return v
	}
	return strings.TrimSpace(value)
}

// Classify reports what role l plays relative to eps.
func (eps Endpoints) Classify(l Line) Kind {
	switch l.Key {
	case KeyAPIKey:
		return KindAPIKey
	case KeyURL:
	default:
		return KindOther
	}

	u := hostPort(ParseValue(l.Key, l.Value))
	if u == nil {
		return KindOtherURL
	}
	local, remote := hostPort(eps.Local), hostPort(eps.Remote)

	switch {
	case remote != nil && u.Host == remote.Host:
		return KindRemoteURL
	case local != nil && u.Host == local.Host:
		return KindLocalURL
	case isLoopback(u.Hostname()):
		return KindLocalURL
	case remote != nil && strings.EqualFold(u.Hostname(), remote.Hostname()):
		return KindRemoteURL
	}
	return KindOtherURL
}

// hostPort parses raw as a URL and fills in the scheme's default port so
// "https://h" and "https://h:443" compare equal. Returns nil if raw has no host.
func hostPort(raw string) *url.URL {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return nil
	}
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" {
		port = "80"
		if strings.EqualFold(u.Scheme, "https") {
			port = "443"
		}
	}
	u.Host = net.JoinHostPort(host, port)
	return u
}

func isLoopback(host string) bool {
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// Setting is the value l carries. API keys are written verbatim by
// ApplyRemote, so they are read back verbatim (only surrounding whitespace
// trimmed); every other value is decoded like a dotenv loader would.
func (l Line) Setting() string {
	if l.Key == KeyAPIKey {
		return strings.TrimSpace(l.Value)
	}
	return ParseValue(l.Key, l.Value)
}

// Lookup returns the Setting of the first active line for key.
// Later duplicates are ignored.
func (d *Document) Lookup(key string) (string, bool) {
	for _, l := range d.Lines {
		if l.Active && l.Key == key {
			return l.Setting(), true
		}
	}
	return "", false
}

// ActiveLines returns every active line carrying key, in file order.
func (d *Document) ActiveLines(key string) []Line {
	var out []Line
	for _, l := range d.Lines {
		if l.Active && l.Key == key {
			out = append(out, l)
		}
	}
	return out
}

// Bytes renders the document. An unmodified document renders to exactly the
// bytes it was parsed from.
func (d *Document) Bytes() []byte {
	var b strings.Builder
	for i, l := range d.Lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l.Raw)
		if l.cr {
			b.WriteByte('\r')
		}
	}
	if d.trailingNewline && len(d.Lines) > 0 {
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	c := &Document{trailingNewline: d.trailingNewline}
	c.Lines = append([]Line(nil), d.Lines...)
	return c
}
