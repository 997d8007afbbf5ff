package envfile

import "strings"

// ApplyLocal selects the local server: the first local URL_GENERATE line is
// activated (appended if missing), every other URL_GENERATE line is disabled
// and every API_KEY line becomes "#API_KEY=".
func (d *Document) ApplyLocal(eps Endpoints) {
	activated := false
	for i := range d.Lines {
		l := &d.Lines[i]
		switch eps.Classify(*l) {
		case KindLocalURL:
			l.set(!activated, l.Value)
			activated = true
		case KindRemoteURL, KindOtherURL:
			l.set(false, l.Value)
		case KindAPIKey:
			l.set(false, "")
		}
	}
	if !activated {
		d.appendLine(KeyURL, strings.TrimRight(eps.Local, "/"))
	}
}

// ApplyRemote selects the remote server and stores key in the first API_KEY
// line (appended if missing). An empty key leaves d untouched.
func (d *Document) ApplyRemote(eps Endpoints, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrEmptyCredential
	}

	urlSet, keySet := false, false
	for i := range d.Lines {
		l := &d.Lines[i]
		switch eps.Classify(*l) {
		case KindRemoteURL:
			l.set(!urlSet, l.Value)
			urlSet = true
		case KindLocalURL, KindOtherURL:
			l.set(false, l.Value)
		case KindAPIKey:
			if keySet {
				l.set(false, "")
				continue
			}
			l.set(true, key)
			keySet = true
		}
	}
	if !urlSet {
		d.appendLine(KeyURL, strings.TrimRight(eps.Remote, "/"))
	}
	if !keySet {
		d.appendLine(KeyAPIKey, key)
	}
	return nil
}

// set rewrites l only when its state or value actually changes, so lines
// already in the wanted state keep their original spelling.
func (l *Line) set(active bool, value string) {
	if l.Active == active && l.Value == value {
		return
	}
	l.Active = active
	l.Value = value
	l.Raw = render(active, l.Key, value)
}

func (d *Document) appendLine(key, value string) {
	d.Lines = append(d.Lines, Line{
		Raw:    render(true, key, value),
		Key:    key,
		Value:  value,
		Active: true,
	})
	d.trailingNewline = true
}

func render(active bool, key, value string) string {
	if active {
		return key + "=" + value
	}
	return Marker + key + "=" + value
}
