package seed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"civicsnap/internal/store"
	"civicsnap/internal/utils"
	"civicsnap/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

const seedPrefix = "[seed] "

var fakeReportDescriptions = []string{
	"Large pothole in the right lane causing cars to swerve.",
	"Streetlight out for the whole block, very dark at night.",
	"Graffiti covering the wall of the underpass.",
	"Overflowing public trash can attracting pests.",
	"Fallen tree branch blocking half of the sidewalk.",
	"Broken crosswalk signal, button does nothing.",
	"Water main leak flooding the gutter.",
	"Illegally dumped mattress and furniture on the curb.",
	"Faded stop line at the four-way intersection.",
	"Damaged bench with exposed screws at the bus stop.",
}

var fakeReportLocations = []string{
	"1 Washington Sq, San Jose, CA",
	"S 4th St & E San Fernando St",
	"Guadalupe River Trail near Julian St",
	"200 E Santa Clara St",
	"37.3352,-121.8811",
}

var fakeReportUserIDs = []string{
	"3b4c1f7e-0d2a-4e55-9a61-6f0c2e9d1a01",
	"8e2d6a90-51f3-4b7c-8c1e-2a7b9f4d3c02",
	"c71f0b3a-9e64-4d28-b5a3-1d8e6c2f7b03",
}

type weightedOwnership struct {
	Anonymous bool
	Public    bool
	Weight    int
}

var weightedOwnerships = []weightedOwnership{
	{Public: true, Weight: 60},
	{Public: false, Weight: 30},
	{Anonymous: true, Weight: 10},
}

// SeedFakeReports inserts count sample reports. With reset, earlier seeded
// rows are removed first; reset needs a database pool.
func SeedFakeReports(ctx context.Context, pool *pgxpool.Pool, repo store.ReportStore, count int, reset bool) (int, error) {
	if count <= 0 {
		fmt.Println("Skipping fake reports seed because count <= 0")
		return 0, nil
	}

	if reset {
		if pool == nil {
			return 0, fmt.Errorf("reset requires a database connection")
		}
		result, err := pool.Exec(ctx, `DELETE FROM civicsnap.reports WHERE description LIKE '[seed] %'`)
		if err != nil {
			return 0, fmt.Errorf("failed to reset seeded fake reports: %w", err)
		}
		fmt.Printf("Reset seeded fake reports: %d deleted\n", result.RowsAffected())
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	created := 0
	for i := 0; i < count; i++ {
		ownership := pickWeightedOwnership(rng)

		in := &types.CreateReport{
			Description: seedPrefix + fakeReportDescriptions[rng.Intn(len(fakeReportDescriptions))],
			ImageURL:    fmt.Sprintf("https://picsum.photos/seed/%s/800/600", utils.NanoIDSize(8)),
		}

		if rng.Intn(100) < 90 {
			in.Location = utils.StringPtr(fakeReportLocations[rng.Intn(len(fakeReportLocations))])
		}

		if !ownership.Anonymous {
			in.UserID = utils.StringPtr(fakeReportUserIDs[rng.Intn(len(fakeReportUserIDs))])
			in.IsPublic = utils.BoolPtr(ownership.Public)
		}

		if _, err := repo.CreateReport(ctx, in); err != nil {
			return created, fmt.Errorf("failed to create fake report %d: %w", i+1, err)
		}

		created++
	}

	fmt.Printf("Fake reports seeded: %d created\n", created)
	return created, nil
}

func pickWeightedOwnership(rng *rand.Rand) weightedOwnership {
	total := 0
	for _, item := range weightedOwnerships {
		total += item.Weight
	}

	roll := rng.Intn(total)
	running := 0
	for _, item := range weightedOwnerships {
		running += item.Weight
		if roll < running {
			return item
		}
	}

	return weightedOwnerships[0]
}
