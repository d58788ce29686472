package service

import (
	"context"
	"testing"

	"clinicon-stellenplan/internal/domain"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestEnsureSeededInsertsFullCatalogOnce(t *testing.T) {
	repo := &fakeQualRepo{}
	svc := NewQualificationService(repo, zap.NewNop())

	require.NoError(t, svc.EnsureSeeded(context.Background()))
	require.Len(t, repo.inserted, len(qualificationSeed))
}

func TestEnsureSeededSkipsKnownCodesAndLegacyLabels(t *testing.T) {
	repo := &fakeQualRepo{rows: []domain.Qualification{
		{ID: 1, Code: "REQ_PFK", Label: "Pflegefachkraft"},
		// Legacy row without a code: the label match must block the seed.
		{ID: 2, Label: "  ungelernte kraft "},
	}}
	svc := NewQualificationService(repo, zap.NewNop())

	require.NoError(t, svc.EnsureSeeded(context.Background()))
	require.Len(t, repo.inserted, len(qualificationSeed)-2)
	require.NotContains(t, repo.inserted, "REQ_PFK")
	require.NotContains(t, repo.inserted, "REQ_UK")
}
