package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaSource string

// Profile is one layer of tracker settings. Nil fields are unset and fall
// through to lower layers.
type Profile struct {
	AlignBy    *string `json:"align_by,omitempty"`
	AutoAlign  *bool   `json:"auto_align,omitempty"`
	RoundEnd   *string `json:"round_end,omitempty"`
	Report     *string `json:"report,omitempty"`
	Once       *bool   `json:"once,omitempty"`
	MaxRounds  *int    `json:"max_rounds,omitempty"`
	Capacity   *int    `json:"capacity,omitempty"`
	RoundPause *string `json:"round_pause,omitempty"`
	LateEvents *string `json:"late_events,omitempty"`
	Engine     *string `json:"engine,omitempty"`
	Mode       *string `json:"mode,omitempty"`
	Filter     *string `json:"filter,omitempty"`
	NoColor    *bool   `json:"no_color,omitempty"`
}

// ProfileError reports a profile that failed to load or validate.
// Pos is set when CUE located the problem inside the profile file.
type ProfileError struct {
	Path string
	Pos  token.Pos
	Err  error
}

func (e *ProfileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("profile %s:%d:%d: %v", e.Path, e.Pos.Line(), e.Pos.Column(), e.Err)
	}
	return fmt.Sprintf("profile %s: %v", e.Path, e.Err)
}

func (e *ProfileError) Unwrap() error {
	return e.Err
}

// LoadProfile reads a profile file and validates it against the #Profile
// schema.
//
// .cue and .json files are compiled by CUE directly; .yaml and .yml files
// are decoded with yaml.v3 first and then encoded into CUE.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, &ProfileError{Path: path, Err: err}
	}

	ctx := cuecontext.New()
	var v cue.Value
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".cue", ".json":
		v = ctx.CompileBytes(data, cue.Filename(path))
	case ".yaml", ".yml":
		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return Profile{}, &ProfileError{Path: path, Err: err}
		}
		if doc == nil {
			doc = map[string]any{}
		}
		v = ctx.Encode(doc)
	default:
		return Profile{}, &ProfileError{Path: path, Err: fmt.Errorf("unsupported profile extension %q (use .cue, .json, .yaml or .yml)", ext)}
	}
	if err := v.Err(); err != nil {
		return Profile{}, cueError(path, err)
	}
	return decodeProfile(ctx, path, v)
}

func decodeProfile(ctx *cue.Context, path string, v cue.Value) (Profile, error) {
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return Profile{}, fmt.Errorf("compile profile schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Profile"))

	unified := def.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Profile{}, cueError(path, err)
	}

	var p Profile
	if err := unified.Decode(&p); err != nil {
		return Profile{}, &ProfileError{Path: path, Err: err}
	}
	return p, nil
}

// Conflicts returns the first pair of mutually exclusive settings that
// are both set in this layer.
func (p Profile) Conflicts() error {
	if p.Once != nil && *p.Once && p.MaxRounds != nil {
		return conflict("once", "max-rounds")
	}
	if p.AutoAlign != nil && *p.AutoAlign && p.AlignBy != nil {
		return conflict("auto-align", "align-by")
	}
	return nil
}

// Merge overlays the set fields of top onto p. Settings that exclude each
// other are cleared from p when top sets the other one.
func (p Profile) Merge(top Profile) Profile {
	out := p
	if top.MaxRounds != nil {
		out.Once = nil
	}
	if top.Once != nil && *top.Once {
		out.MaxRounds = nil
	}
	if top.AlignBy != nil {
		out.AutoAlign = nil
	}
	if top.AutoAlign != nil && *top.AutoAlign {
		out.AlignBy = nil
	}

	overlay(&out.AlignBy, top.AlignBy)
	overlay(&out.AutoAlign, top.AutoAlign)
	overlay(&out.RoundEnd, top.RoundEnd)
	overlay(&out.Report, top.Report)
	overlay(&out.Once, top.Once)
	overlay(&out.MaxRounds, top.MaxRounds)
	overlay(&out.Capacity, top.Capacity)
	overlay(&out.RoundPause, top.RoundPause)
	overlay(&out.LateEvents, top.LateEvents)
	overlay(&out.Engine, top.Engine)
	overlay(&out.Mode, top.Mode)
	overlay(&out.Filter, top.Filter)
	overlay(&out.NoColor, top.NoColor)
	return out
}

func overlay[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

// cueError wraps the first CUE error, keeping its position when it points
// into the profile itself rather than the schema.
func cueError(path string, err error) *ProfileError {
	pe := &ProfileError{Path: path, Err: err}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return pe
	}
	pe.Err = errs[0]
	for _, pos := range cueerrors.Positions(errs[0]) {
		if pos.Filename() == path {
			pe.Pos = pos
			break
		}
	}
	return pe
}
