package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrace_Records(t *testing.T) {
	tr := Trace{
		Queries:     &StageRecord{Stage: StageDiscover},
		Performance: &StageRecord{Stage: StageFinalize},
	}

	recs := tr.Records()
	assert.Len(t, recs, 2)
	assert.Equal(t, StageDiscover, recs[0].Stage)
	assert.Equal(t, StageFinalize, recs[1].Stage)

	assert.Empty(t, (&Trace{}).Records())
}

func TestTrace_RecordsPipelineOrder(t *testing.T) {
	tr := Trace{
		Queries:        &StageRecord{Stage: StageDiscover},
		Results:        &StageRecord{Stage: StageDeduplicate},
		Prioritization: &StageRecord{Stage: StagePrioritize},
		Extract:        &StageRecord{Stage: StageExtract},
		Filters:        &StageRecord{Stage: StageFilter},
		Performance:    &StageRecord{Stage: StageFinalize},
	}

	var stages []string
	for _, r := range tr.Records() {
		stages = append(stages, r.Stage)
	}
	assert.Equal(t, []string{
		StageDiscover, StageDeduplicate, StagePrioritize,
		StageExtract, StageFilter, StageFinalize,
	}, stages)
}
