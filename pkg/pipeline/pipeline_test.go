// pkg/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datapraxis/medallion/pkg/config"
	"github.com/datapraxis/medallion/pkg/store"
)

const rawClients = `id_client,nom,email,pays,date_inscription
1,Alice, Alice@Example.com ,UK,2023-05-10
2,Bob,bob@example.com,France,2023-06-01
2,Bobby,bobby@example.com,France,2023-07-01
,Ghost,ghost@example.com,Spain,2023-01-01
3,Cara,cara@example.com,Netherland,2023-08-15
`

const rawPurchases = `id_achat,id_client,date_achat,montant,produit
1,1,2024-01-01,100,widget
1,1,2024-01-02,150,widget
2,2,2024-01-02,50,gadget
3,2,2024-02-01,-10,gadget
4,3,2024-02-05,75,widget
5,99,2024-02-06,60,gadget
6,1,2024-02-07,abc,widget
7,2,2024-02-08,80,gadget
`

func testConfig() *config.Config {
	return &config.Config{
		SourcesBucket: "sources",
		SilverBucket:  "silver",
		GoldBucket:    "gold",
		SourceObjects: []string{"clients.csv", "achats.csv"},
	}
}

func seedSources(t *testing.T, blobs *store.MemoryBlobStore) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, blobs.Create(ctx, "sources"))
	require.NoError(t, blobs.Put(ctx, "sources", "clients.csv", []byte(rawClients)))
	require.NoError(t, blobs.Put(ctx, "sources", "achats.csv", []byte(rawPurchases)))
}

func newTestPipeline(t *testing.T, blobs *store.MemoryBlobStore, docs *store.MemoryDocumentStore) *Pipeline {
	t.Helper()
	p, err := New(testConfig(), blobs, docs, zap.NewNop())
	require.NoError(t, err)
	return p
}

func TestFullRunProducesConsistentCollections(t *testing.T) {
	ctx := context.Background()
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	seedSources(t, blobs)

	p := newTestPipeline(t, blobs, docs)
	require.NoError(t, p.Run(ctx))

	// Silver objects replaced the raw layer
	silverClients, err := blobs.Get(ctx, "silver", "clients.csv")
	require.NoError(t, err)
	assert.NotEmpty(t, silverClients)

	// Keyed dimension: one document per surviving customer
	dimClient := docs.Collection("dim_client")
	require.Len(t, dimClient, 3)

	byID := make(map[interface{}]map[string]interface{})
	for _, doc := range dimClient {
		byID[doc["_id"]] = doc
	}
	assert.Equal(t, "United Kingdom", byID[int64(1)]["pays"])
	assert.Equal(t, "Netherlands", byID[int64(3)]["pays"])
	// Duplicate customer 2 kept its latest registration
	assert.Equal(t, "bobby@example.com", byID[int64(2)]["email"])

	// Fact table has two id columns, so it ships keyless with all
	// surviving purchases, including the one with an unknown customer
	fact := docs.Collection("fact_purchases")
	require.Len(t, fact, 5)

	var unknownCountry map[string]interface{}
	for _, doc := range fact {
		if doc["id_achat"] == int64(5) {
			unknownCountry = doc
		}
	}
	require.NotNil(t, unknownCountry)
	assert.Nil(t, unknownCountry["pays"])

	// KPI totals agree with the daily rollup
	kpis := docs.Collection("kpis")
	require.Len(t, kpis, 1)
	assert.InDelta(t, 415.0, kpis[0]["total_revenue"].(float64), 1e-9)
	assert.Equal(t, int64(5), kpis[0]["total_transactions"])

	var dailySum float64
	for _, doc := range docs.Collection("agg_daily") {
		dailySum += doc["revenue"].(float64)
	}
	assert.InDelta(t, 415.0, dailySum, 1e-9)
}

func TestSecondRunConvergesKeyedAndDuplicatesKeyless(t *testing.T) {
	ctx := context.Background()
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	seedSources(t, blobs)

	p := newTestPipeline(t, blobs, docs)
	require.NoError(t, p.Run(ctx))

	firstDaily := len(docs.Collection("agg_daily"))
	require.Greater(t, firstDaily, 0)

	require.NoError(t, p.Run(ctx))

	// Keyed collections converge to one document per key
	assert.Len(t, docs.Collection("dim_client"), 3)

	// Keyless collections append; the duplication is the documented
	// trade-off of the keyless path
	assert.Len(t, docs.Collection("agg_daily"), firstDaily*2)
}

func TestRunSilverFailsWhenSourceMissing(t *testing.T) {
	ctx := context.Background()
	blobs := store.NewMemoryBlobStore()
	require.NoError(t, blobs.Create(ctx, "sources"))

	p := newTestPipeline(t, blobs, store.NewMemoryDocumentStore())
	err := p.RunSilver(ctx)
	assert.Error(t, err)
}

func TestRunSyncSkipsMissingGoldObjects(t *testing.T) {
	ctx := context.Background()
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()
	require.NoError(t, blobs.Create(ctx, "gold"))
	require.NoError(t, blobs.Put(ctx, "gold", "kpis.csv",
		[]byte("total_revenue,total_transactions,avg_order_value\n100,2,50\n")))

	p := newTestPipeline(t, blobs, docs)
	require.NoError(t, p.RunSync(ctx))

	// Only the object present in the bucket was synced
	assert.Len(t, docs.Collection("kpis"), 1)
	assert.Empty(t, docs.Collection("dim_client"))
}

func TestPipelineNewValidatesDependencies(t *testing.T) {
	blobs := store.NewMemoryBlobStore()
	docs := store.NewMemoryDocumentStore()

	_, err := New(nil, blobs, docs, zap.NewNop())
	assert.Error(t, err)

	_, err = New(testConfig(), nil, docs, zap.NewNop())
	assert.Error(t, err)

	_, err = New(testConfig(), blobs, docs, nil)
	assert.Error(t, err)
}

func TestPipelineWithoutDocumentStoreRunsSilverAndGold(t *testing.T) {
	ctx := context.Background()
	blobs := store.NewMemoryBlobStore()
	seedSources(t, blobs)

	p, err := New(testConfig(), blobs, nil, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, p.RunSilver(ctx))
	require.NoError(t, p.RunGold(ctx))

	_, err = blobs.Get(ctx, "gold", "kpis.csv")
	assert.NoError(t, err)

	err = p.RunSync(ctx)
	assert.ErrorContains(t, err, "no document store configured")
}
