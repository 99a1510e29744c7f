package catalog

import (
	"context"

	"github.com/google/cel-go/cel"
	"github.com/pkg/errors"

	apperrors "github.com/hrygo/confagenda/server/internal/errors"
	"github.com/hrygo/confagenda/store"
)

// newFilterEnv declares the variables a filter expression may reference.
func newFilterEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("title", cel.StringType),
		cel.Variable("description", cel.StringType),
		cel.Variable("track", cel.StringType),
		cel.Variable("format", cel.StringType),
		cel.Variable("level", cel.StringType),
		cel.Variable("location", cel.StringType),
		cel.Variable("tags", cel.ListType(cel.StringType)),
		cel.Variable("speakers", cel.ListType(cel.StringType)),
		cel.Variable("day", cel.IntType),
	)
}

// Filter returns the catalog sessions for which expr evaluates to true.
//
// Example: `track == "Claims" && "automation" in tags && day == 1`.
func (s *Service) Filter(ctx context.Context, expr string) ([]*store.Session, error) {
	program, err := compileFilter(expr)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInvalidArgument, "invalid session filter")
	}
	all, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	result := []*store.Session{}
	for _, session := range all {
		out, _, err := program.Eval(s.filterActivation(session))
		if err != nil {
			return nil, errors.Wrapf(err, "failed to evaluate filter on session %s", session.ID)
		}
		if matched, ok := out.Value().(bool); ok && matched {
			result = append(result, session)
		}
	}
	return result, nil
}

func compileFilter(expr string) (cel.Program, error) {
	env, err := newFilterEnv()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create filter environment")
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, errors.Wrapf(issues.Err(), "invalid filter %q", expr)
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, errors.Errorf("filter %q must evaluate to a bool, got %s", expr, ast.OutputType())
	}
	program, err := env.Program(ast)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build filter program")
	}
	return program, nil
}

func (s *Service) filterActivation(session *store.Session) map[string]any {
	tags := session.Tags
	if tags == nil {
		tags = []string{}
	}
	speakers := make([]string, 0, len(session.Speakers))
	for _, speaker := range session.Speakers {
		speakers = append(speakers, speaker.Name)
	}
	day := int64(0)
	if session.HasValidTiming() {
		day = int64(s.conference.DayNumber(session.StartTime()))
	}
	return map[string]any{
		"id":          session.ID,
		"title":       session.Title,
		"description": session.Description,
		"track":       session.Track,
		"format":      session.Format,
		"level":       session.Level,
		"location":    session.Location,
		"tags":        tags,
		"speakers":    speakers,
		"day":         day,
	}
}
