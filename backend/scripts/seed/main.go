// Seeds Neo4j with a small demo debate hypergraph so the API server and
// viewer have something to show. Run with -clear to wipe the store first.
package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"github.com/CrossDebate/app/backend/internal/hot"
	"github.com/CrossDebate/app/backend/pkg/config"
	"github.com/CrossDebate/app/backend/pkg/logger"
)

func main() {
	clearFirst := flag.Bool("clear", false, "Clear the persisted hypergraph before seeding")
	flag.Parse()

	// Initialize logger
	if err := logger.Init("development"); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting hypergraph seeding...")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}
	if cfg.Neo4jURI == "" {
		log.Fatal("NEO4J_URI must be set to seed the persisted hypergraph")
	}

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	// Create constraints
	log.Info("Creating constraints...")
	if err := createConstraints(ctx, driver); err != nil {
		log.Warn("Failed to create some constraints (may already exist)", zap.Error(err))
	}

	repo := hot.NewNeo4jRepository(driver)
	svc := hot.NewService(cfg.DefaultNodeRelevance, cfg.DefaultEdgeWeight, repo)

	if *clearFirst {
		if err := svc.Clear(ctx); err != nil {
			log.Fatal("Failed to clear hypergraph", zap.Error(err))
		}
		log.Info("Existing hypergraph cleared")
	} else {
		if err := svc.Restore(ctx); err != nil {
			log.Fatal("Failed to restore existing hypergraph", zap.Error(err))
		}
	}

	if err := seedDebate(ctx, svc); err != nil {
		log.Fatal("Failed to seed demo debate", zap.Error(err))
	}

	current := svc.Current()
	log.Info("Seeding complete",
		zap.Int("nodes", len(current.Nodes)),
		zap.Int("edges", len(current.Edges)),
	)
}

// createConstraints sets up uniqueness constraints for the hypergraph labels
func createConstraints(ctx context.Context, driver neo4j.DriverWithContext) error {
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	constraints := []string{
		"CREATE CONSTRAINT thought_id_unique IF NOT EXISTS FOR (t:Thought) REQUIRE t.id IS UNIQUE",
		"CREATE CONSTRAINT hyperedge_id_unique IF NOT EXISTS FOR (h:Hyperedge) REQUIRE h.id IS UNIQUE",
	}

	for _, constraint := range constraints {
		if _, err := session.Run(ctx, constraint, nil); err != nil {
			return fmt.Errorf("failed to create constraint: %w", err)
		}
	}
	return nil
}

// seedDebate adds a small argument map: a claim, supporting and opposing
// thoughts, and hyperedges tying them together, one spanning three nodes.
func seedDebate(ctx context.Context, svc *hot.Service) error {
	relevance := func(v float64) *float64 { return &v }
	weight := func(v float64) *float64 { return &v }

	claim, err := svc.AddNode(ctx, hot.NodeInput{
		Label:     "Remote work increases productivity",
		Relevance: relevance(0.9),
	})
	if err != nil {
		return err
	}

	support, err := svc.AddNode(ctx, hot.NodeInput{
		Label:     "Fewer interruptions allow deeper focus",
		Relevance: relevance(0.7),
	})
	if err != nil {
		return err
	}

	counter, err := svc.AddNode(ctx, hot.NodeInput{
		Label:     "Collaboration suffers without shared space",
		Relevance: relevance(0.6),
	})
	if err != nil {
		return err
	}

	evidence, err := svc.AddNode(ctx, hot.NodeInput{
		Label:     "Commute time converts directly into work or rest",
		Relevance: relevance(0.5),
	})
	if err != nil {
		return err
	}

	synthesis, err := svc.AddNode(ctx, hot.NodeInput{
		Label:     "Hybrid schedules capture most of both benefits",
		Relevance: relevance(0.8),
	})
	if err != nil {
		return err
	}

	if _, err := svc.AddHyperedge(ctx, hot.EdgeInput{
		Members: []string{claim.ID, support.ID, evidence.ID},
		Weight:  weight(0.8),
	}); err != nil {
		return err
	}

	if _, err := svc.AddHyperedge(ctx, hot.EdgeInput{
		Members: []string{claim.ID, counter.ID},
		Weight:  weight(0.5),
	}); err != nil {
		return err
	}

	if _, err := svc.AddHyperedge(ctx, hot.EdgeInput{
		Members: []string{support.ID, counter.ID, synthesis.ID},
		Weight:  weight(0.7),
	}); err != nil {
		return err
	}

	return nil
}
