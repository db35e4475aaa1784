package engine

import (
	"context"

	"github.com/bytedance/sonic"

	"gamification-engine/pkg/common"
)

// AchievementsForToday returns the serialized list of achievements the user
// can work on right now, filtered by validity window and geo fence. The
// result is cached until the user's local midnight, when the validity
// filter can change.
func (e *Engine) AchievementsForToday(ctx context.Context, userID int64) ([]byte, error) {
	now := e.clock()
	if data := e.today.Get(userID, now); data != nil {
		return data, nil
	}

	user, err := e.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := common.LoadLocation(user.Timezone)
	localNow := now.In(loc)

	achievements, err := e.catalog.ListAchievements(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]TodayAchievement, 0, len(achievements))
	for _, ach := range achievements {
		if !ach.ValidOn(localNow) {
			continue
		}
		if ach.Lat != nil && ach.Lng != nil && ach.MaxDistance != nil {
			// Users without a known location keep seeing fenced
			// achievements; only a known position outside the fence
			// filters them out.
			if lat, lng, ok := user.Location(); ok {
				distance := common.HaversineMeters(lat, lng, *ach.Lat, *ach.Lng)
				if distance > float64(*ach.MaxDistance) {
					continue
				}
			}
		}

		row := TodayAchievement{
			AchievementID:  ach.ID,
			InternalName:   ach.Name,
			MaxLevel:       ach.MaxLevel,
			Hidden:         ach.Hidden,
			Priority:       ach.Priority,
			ViewPermission: string(ach.ViewPermission),
		}
		if ach.CategoryID != nil {
			category, err := e.catalog.GetCategory(ctx, *ach.CategoryID)
			if err != nil {
				return nil, err
			}
			if category != nil {
				row.Category = &category.Name
			}
		}
		rows = append(rows, row)
	}

	data, err := sonic.ConfigStd.Marshal(rows)
	if err != nil {
		return nil, err
	}
	e.today.Set(userID, data, now.Add(common.UntilTomorrow(now, loc)))

	return data, nil
}
