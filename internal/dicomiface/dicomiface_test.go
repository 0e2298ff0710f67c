package dicomiface_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DocHatty/vulpes-celare/internal/dicomiface"
	"github.com/DocHatty/vulpes-celare/internal/span"
)

type stubFilter struct {
	id      string
	actions []dicomiface.ElementAction
	err     error
}

func (s stubFilter) ID() string { return s.id }
func (s stubFilter) AnonymizeElements(elements []dicomiface.Element) ([]dicomiface.ElementAction, error) {
	return s.actions, s.err
}

func TestCombineNilCollaborator(t *testing.T) {
	textRedactions := []span.Redaction{{Start: 0, End: 4, Category: "NAME"}}
	report, err := dicomiface.Combine(textRedactions, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, textRedactions, report.TextRedactions)
	assert.Empty(t, report.StructuredActions)
	assert.Empty(t, report.StructuredFilterID)
}

func TestCombineMergesCollaboratorActions(t *testing.T) {
	filter := stubFilter{
		id: "dicom-ref",
		actions: []dicomiface.ElementAction{
			{Tag: "(0010,0010)", Action: dicomiface.ActionRemove, Reason: "PatientName"},
		},
	}
	elements := []dicomiface.Element{{Tag: "(0010,0010)", Value: "Smith^John"}}

	report, err := dicomiface.Combine(nil, filter, elements)
	require.NoError(t, err)
	assert.Equal(t, "dicom-ref", report.StructuredFilterID)
	require.Len(t, report.StructuredActions, 1)
	assert.Equal(t, dicomiface.ActionRemove, report.StructuredActions[0].Action)
}

func TestCombinePropagatesCollaboratorError(t *testing.T) {
	filter := stubFilter{id: "broken", err: errors.New("boom")}
	_, err := dicomiface.Combine(nil, filter, nil)
	assert.Error(t, err)
}
