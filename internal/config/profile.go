// BYZRA ⸻ internal/config/profile.go
// tag profile: extra exiftool tags written on every fixed file

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

const ProfileFileName = "profile.lua"

var ErrNoProfile = errors.New("no profile found")

// exiftool tag name, optionally group-qualified (XMP-dc:Creator)
var tagName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_-]*(:[A-Za-z][A-Za-z0-9_-]*)?$`)

// tags that move or rename the output; the fixer owns those
var reservedTags = map[string]bool{
	"filename":  true,
	"directory": true,
	"filepath":  true,
}

// loads the profile from path or the search locations.
// Returns ErrNoProfile when there is none; a profile is optional.
func LoadProfile(path string) (map[string]string, error) {
	if path == "" {
		paths := []string{
			filepath.Join("config", ProfileFileName),
			"./" + ProfileFileName,
			filepath.Join(homeDir(), ".photofix/config", ProfileFileName),
		}
		for _, p := range paths {
			if _, err := os.Stat(p); err == nil {
				path = p
				break
			}
		}
	}

	if path == "" {
		return nil, ErrNoProfile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}

	return ParseProfile(string(data))
}

// runs the Lua chunk; it must return a table of tag = "value" pairs
func ParseProfile(source string) (map[string]string, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	defer L.Close()

	// base + string only; a profile has no business touching io or os
	for _, lib := range []struct {
		name string
		fn   lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.StringLibName, lua.OpenString},
	} {
		L.Push(L.NewFunction(lib.fn))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("failed to execute profile Lua: %w", err)
	}

	result := L.Get(-1)
	if result.Type() != lua.LTTable {
		return nil, fmt.Errorf("profile Lua must return a table")
	}

	profile := make(map[string]string)
	var bad error
	result.(*lua.LTable).ForEach(func(k, v lua.LValue) {
		if bad != nil {
			return
		}
		if k.Type() != lua.LTString {
			bad = fmt.Errorf("profile keys must be tag names, got %s", k.Type())
			return
		}
		key := k.String()
		if !tagName.MatchString(key) {
			bad = fmt.Errorf("invalid tag name in profile: %q", key)
			return
		}
		if reservedTags[strings.ToLower(key[strings.LastIndex(key, ":")+1:])] {
			bad = fmt.Errorf("profile may not set %s", key)
			return
		}
		switch v.Type() {
		case lua.LTString, lua.LTNumber:
			profile[key] = v.String()
		case lua.LTBool:
			profile[key] = v.String()
		default:
			bad = fmt.Errorf("profile tag %s has unsupported value type %s", key, v.Type())
		}
	})
	if bad != nil {
		return nil, bad
	}

	return profile, nil
}
