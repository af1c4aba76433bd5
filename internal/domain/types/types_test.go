package types_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/cragrank/internal/domain/model"
	types "github.com/okian/cragrank/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDiffEntryWireShape(t *testing.T) {
	Convey("Given diff entries of each kind", t, func() {
		zero := 0
		added := types.DiffEntry{ClimberID: 1, Added: true}
		removed := types.DiffEntry{ClimberID: 2, Removed: true}
		delta := types.DiffEntry{ClimberID: 3, Delta: &zero}

		Convey("Then only the relevant field is emitted", func() {
			b, err := json.Marshal([]types.DiffEntry{added, removed, delta})
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `[{"climberId":1,"added":true},{"climberId":2,"removed":true},{"climberId":3,"delta":0}]`)
		})

		Convey("Then Kind names each record", func() {
			So(added.Kind(), ShouldEqual, "added")
			So(removed.Kind(), ShouldEqual, "removed")
			So(delta.Kind(), ShouldEqual, "delta")
		})
	})
}

func TestEntriesFromMap(t *testing.T) {
	Convey("Given an unordered rank map", t, func() {
		ranks := map[model.ClimberID]int{7: 2, 3: 1, 5: 2, 9: 4}

		Convey("When flattened", func() {
			entries := types.EntriesFromMap(ranks)

			Convey("Then entries are ordered by rank then climber id", func() {
				So(entries, ShouldResemble, []types.RankEntry{
					{ClimberID: 3, Rank: 1},
					{ClimberID: 5, Rank: 2},
					{ClimberID: 7, Rank: 2},
					{ClimberID: 9, Rank: 4},
				})
			})
		})
	})
}
