package tools

import (
	"context"

	"go.uber.org/zap"

	"github.com/dataquill-ai/dataquill-engine/pkg/models"
)

type mockTabular struct {
	result string
	err    error

	lastFileID    string
	lastSQL       string
	lastObjective string
}

func (m *mockTabular) Query(ctx context.Context, fileID, sqlQuery, objective string) (string, error) {
	m.lastFileID = fileID
	m.lastSQL = sqlQuery
	m.lastObjective = objective
	return m.result, m.err
}

type mockDocuments struct {
	report *models.ReductionReport
	err    error

	lastFileID string
	lastQuery  string
}

func (m *mockDocuments) Read(ctx context.Context, fileID, query string) (*models.ReductionReport, error) {
	m.lastFileID = fileID
	m.lastQuery = query
	return m.report, m.err
}

func testDeps(tabular *mockTabular, docs *mockDocuments) *Deps {
	return &Deps{
		Tabular:   tabular,
		Documents: docs,
		Logger:    zap.NewNop(),
	}
}
