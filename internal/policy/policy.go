// Package policy loads garbage collection policies written in CUE.
//
// A policy file looks like:
//
//	gc: {
//		consider_remote_refs: true
//		collect_heads:        "backed-by-remote-head"
//	}
//
// Every field is optional; missing fields take the defaults of gc.Config.
// Unknown fields are rejected.
package policy

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/ditgc/internal/gc"
)

//go:embed schema.cue
var schemaSource string

var knownFields = map[string][]string{
	"":   {"gc"},
	"gc": {"consider_remote_refs", "collect_heads"},
}

// Error is a policy that failed to parse or validate.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load reads and parses the policy file at path.
func Load(path string) (gc.Config, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return gc.Config{}, fmt.Errorf("load policy: %w", err)
	}
	return Parse(src, path)
}

// Parse evaluates src against the policy schema. filename is used in
// error positions only.
func Parse(src []byte, filename string) (gc.Config, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return gc.Config{}, fmt.Errorf("policy schema: %w", err)
	}

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return gc.Config{}, formatCUEError(err)
	}
	if err := checkFields(user, ""); err != nil {
		return gc.Config{}, err
	}

	v := schema.LookupPath(cue.ParsePath("#Policy")).Unify(user)
	if err := v.Validate(); err != nil {
		return gc.Config{}, formatCUEError(err)
	}
	return decode(v)
}

// checkFields rejects fields the schema does not know, with their position.
func checkFields(v cue.Value, path string) error {
	if v.IncompleteKind() != cue.StructKind {
		if path == "" {
			return nil
		}
		return &Error{Field: path, Message: "must be a struct", Pos: v.Pos()}
	}

	iter, err := v.Fields()
	if err != nil {
		return formatCUEError(err)
	}
	for iter.Next() {
		label := iter.Label()
		field := label
		if path != "" {
			field = path + "." + label
		}
		if !contains(knownFields[path], label) {
			return &Error{Field: field, Message: "unknown field", Pos: iter.Value().Pos()}
		}
		if _, nested := knownFields[field]; nested {
			if err := checkFields(iter.Value(), field); err != nil {
				return err
			}
		}
	}
	return nil
}

func decode(v cue.Value) (gc.Config, error) {
	var cfg gc.Config

	remote, _ := v.LookupPath(cue.ParsePath("gc.consider_remote_refs")).Default()
	b, err := remote.Bool()
	if err != nil {
		return gc.Config{}, &Error{Field: "gc.consider_remote_refs", Message: "must be a bool", Pos: remote.Pos()}
	}
	cfg.ConsiderRemoteRefs = b

	heads, _ := v.LookupPath(cue.ParsePath("gc.collect_heads")).Default()
	s, err := heads.String()
	if err != nil {
		return gc.Config{}, &Error{Field: "gc.collect_heads", Message: "must be a string", Pos: heads.Pos()}
	}
	hp, err := gc.ParseHeadPolicy(s)
	if err != nil {
		return gc.Config{}, &Error{Field: "gc.collect_heads", Message: err.Error(), Pos: heads.Pos()}
	}
	cfg.CollectHeads = hp

	return cfg, nil
}

// formatCUEError converts the first CUE error into an Error with its
// position and path.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return &Error{Field: "cue", Message: err.Error()}
	}

	first := errs[0]
	field := strings.Join(first.Path(), ".")
	if field == "" {
		field = "cue"
	}
	format, args := first.Msg()
	out := &Error{Field: field, Message: fmt.Sprintf(format, args...)}
	if positions := errors.Positions(first); len(positions) > 0 {
		out.Pos = positions[0]
	}
	return out
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
