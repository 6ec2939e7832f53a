package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordChunks(t *testing.T) {
	before := testutil.ToFloat64(ChunksEmitted.WithLabelValues("TCA37"))
	RecordChunks("TCA37", 4)
	assert.InDelta(t, before+4, testutil.ToFloat64(ChunksEmitted.WithLabelValues("TCA37")), 1e-9)
}

func TestRecordDiagnostics(t *testing.T) {
	trunc := testutil.ToFloat64(ChunkTruncations.WithLabelValues("DCS"))
	degen := testutil.ToFloat64(DegenerateDocuments.WithLabelValues("DCS"))
	batch := testutil.ToFloat64(BatchTruncations)

	RecordChunkTruncation("DCS")
	RecordDegenerate("DCS")
	RecordBatchTruncations(2)

	assert.InDelta(t, trunc+1, testutil.ToFloat64(ChunkTruncations.WithLabelValues("DCS")), 1e-9)
	assert.InDelta(t, degen+1, testutil.ToFloat64(DegenerateDocuments.WithLabelValues("DCS")), 1e-9)
	assert.InDelta(t, batch+2, testutil.ToFloat64(BatchTruncations), 1e-9)
}

func TestRecordEvaluation(t *testing.T) {
	passed := testutil.ToFloat64(EvaluationCases.WithLabelValues("ethics", "passed"))
	failed := testutil.ToFloat64(EvaluationCases.WithLabelValues("ethics", "failed"))

	RecordEvaluation("ethics", true)
	RecordEvaluation("ethics", false)
	RecordEvaluation("ethics", false)

	assert.InDelta(t, passed+1, testutil.ToFloat64(EvaluationCases.WithLabelValues("ethics", "passed")), 1e-9)
	assert.InDelta(t, failed+2, testutil.ToFloat64(EvaluationCases.WithLabelValues("ethics", "failed")), 1e-9)
}
