package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaeky/Yum-Yum-sub001/internal/domain"
)

func testTables() []domain.Table {
	return []domain.Table{
		{ID: "t1", Number: 1, Capacity: 2, Status: domain.TableStatusAvailable},
		{ID: "t2", Number: 2, Capacity: 4, Status: domain.TableStatusAvailable},
		{ID: "t3", Number: 3, Capacity: 4, Status: domain.TableStatusAvailable},
		{ID: "t4", Number: 4, Capacity: 8, Status: domain.TableStatusAvailable},
	}
}

func TestAllocateTable_SmallestSufficient(t *testing.T) {
	tables := testTables()

	// A party of 3 skips the two-top and gets the smaller four-top
	table, err := AllocateTable(tables, nil, 3)
	require.NoError(t, err)
	assert.Equal(t, "t2", table.ID)

	// A party of 1 gets the two-top even though bigger tables are free
	table, err = AllocateTable(tables, nil, 1)
	require.NoError(t, err)
	assert.Equal(t, "t1", table.ID)
}

func TestAllocateTable_TieBreakLowestNumber(t *testing.T) {
	tables := []domain.Table{
		{ID: "t9", Number: 9, Capacity: 4, Status: domain.TableStatusAvailable},
		{ID: "t3", Number: 3, Capacity: 4, Status: domain.TableStatusAvailable},
		{ID: "t7", Number: 7, Capacity: 4, Status: domain.TableStatusAvailable},
	}

	table, err := AllocateTable(tables, nil, 4)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Number)
}

func TestAllocateTable_SkipsOccupied(t *testing.T) {
	tables := testTables()
	occupied := map[string]bool{"t2": true}

	table, err := AllocateTable(tables, occupied, 3)
	require.NoError(t, err)
	assert.Equal(t, "t3", table.ID)

	// All fitting tables taken
	occupied["t3"] = true
	occupied["t4"] = true
	_, err = AllocateTable(tables, occupied, 3)
	assert.ErrorIs(t, err, domain.ErrNoTableAvailable)
}

func TestAllocateTable_SkipsNonAvailableStatus(t *testing.T) {
	tables := []domain.Table{
		{ID: "t1", Number: 1, Capacity: 4, Status: domain.TableStatusBlocked},
		{ID: "t2", Number: 2, Capacity: 6, Status: domain.TableStatusAvailable},
	}

	table, err := AllocateTable(tables, nil, 4)
	require.NoError(t, err)
	assert.Equal(t, "t2", table.ID)
}

func TestAllocateTable_PartyTooLarge(t *testing.T) {
	_, err := AllocateTable(testTables(), nil, 9)
	assert.ErrorIs(t, err, domain.ErrNoTableAvailable)
}

func TestFreeTableCount(t *testing.T) {
	tables := testTables()

	assert.Equal(t, 4, FreeTableCount(tables, nil, 1))
	assert.Equal(t, 3, FreeTableCount(tables, nil, 4))
	assert.Equal(t, 2, FreeTableCount(tables, map[string]bool{"t2": true}, 3))
	assert.Equal(t, 0, FreeTableCount(tables, nil, 20))
}
