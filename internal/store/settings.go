package store

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"nestdo/internal/model"
)

const (
	SettingShowCompleted = "show_completed"
	SettingSortMode      = "sort_mode"
)

// Settings holds the projection flags read from the key:value settings file.
// Every other key (fonts, colors, pacing...) belongs to the presentation layer
// and is carried through untouched.
type Settings struct {
	ShowCompleted bool           `json:"showCompleted" yaml:"show_completed"`
	SortMode      model.SortMode `json:"sortMode" yaml:"sort_mode"`

	// other keeps unknown lines in file order so a rewrite does not drop them.
	other []settingLine
}

type settingLine struct {
	key   string
	value string
}

func DefaultSettings() Settings {
	return Settings{ShowCompleted: true, SortMode: model.SortCustom}
}

// Get returns the string form of a known setting.
func (s Settings) Get(key string) (string, bool) {
	switch key {
	case SettingShowCompleted:
		return strconv.FormatBool(s.ShowCompleted), true
	case SettingSortMode:
		return string(s.SortMode), true
	}
	for _, l := range s.other {
		if l.key == key {
			return l.value, true
		}
	}
	return "", false
}

// Map returns every setting, preserved keys included, as strings.
func (s Settings) Map() map[string]string {
	m := map[string]string{}
	for _, l := range s.other {
		m[l.key] = l.value
	}
	m[SettingShowCompleted], _ = s.Get(SettingShowCompleted)
	m[SettingSortMode], _ = s.Get(SettingSortMode)
	return m
}

// Set updates a projection setting. Unknown keys are rejected; they are not
// ours to write.
func (s *Settings) Set(key, value string) error {
	value = strings.TrimSpace(value)
	switch key {
	case SettingShowCompleted:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s: expected true|false, got %q", key, value)
		}
		s.ShowCompleted = b
		return nil
	case SettingSortMode:
		m, ok := model.ParseSortMode(value)
		if !ok {
			return fmt.Errorf("%s: expected custom|alphabetical, got %q", key, value)
		}
		s.SortMode = m
		return nil
	default:
		return fmt.Errorf("unknown setting: %s", key)
	}
}

// ParseSettings reads key:value lines. Invalid values for known keys fall
// back to defaults.
func ParseSettings(r io.Reader) (Settings, error) {
	st := DefaultSettings()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		switch k {
		case SettingShowCompleted, SettingSortMode:
			_ = st.Set(k, v)
		default:
			st.other = append(st.other, settingLine{key: k, value: v})
		}
	}
	if err := sc.Err(); err != nil {
		return DefaultSettings(), fmt.Errorf("read settings: %w", err)
	}
	return st, nil
}

// WriteSettings writes the projection keys first, then every preserved key.
func WriteSettings(w io.Writer, s Settings) error {
	if s.SortMode == "" {
		s.SortMode = model.SortCustom
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s:%t\n", SettingShowCompleted, s.ShowCompleted)
	fmt.Fprintf(bw, "%s:%s\n", SettingSortMode, s.SortMode)
	for _, l := range s.other {
		fmt.Fprintf(bw, "%s:%s\n", l.key, l.value)
	}
	return bw.Flush()
}
