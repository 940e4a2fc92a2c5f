package cup

// ══════════════════════════════════════════════════════════════════════════════
// MEDAL HOLDERS
// Медали не хранятся: они выводятся из рекорда дня и результатов игроков.
// ══════════════════════════════════════════════════════════════════════════════

// HoldersOf возвращает записи, чей результат совпадает со слотом p.
// ok == false, если слот пуст: это отличается от "слот есть, держателей нет".
func HoldersOf(hs HighScore, records []ScoreRecord, p Placement) (holders []ScoreRecord, ok bool) {
	value, set := hs.Slot(p)
	if !set {
		return nil, false
	}
	holders = make([]ScoreRecord, 0)
	for _, rec := range records {
		if rec.Period == hs.Period && rec.Guess == value {
			holders = append(holders, rec)
		}
	}
	return holders, true
}

// Markers возвращает все медали дня: золото, затем серебро, затем бронза,
// внутри медали - в порядке записей.
func Markers(hs HighScore, records []ScoreRecord) []MarkerChange {
	out := make([]MarkerChange, 0)
	for _, p := range Placements {
		holders, ok := HoldersOf(hs, records, p)
		if !ok {
			continue
		}
		for _, rec := range holders {
			out = append(out, MarkerChange{Source: rec.Source, Player: rec.Player, Placement: p})
		}
	}
	return out
}

// DiffMarkers сравнивает медали до и после нового результата.
// removed - медали, которые нужно снять, added - которые нужно поставить.
// Медаль, которая осталась на том же сообщении, не попадает ни туда, ни туда.
func DiffMarkers(before, after []MarkerChange) (removed, added []MarkerChange) {
	type key struct {
		ref MessageRef
		p   Placement
	}
	inBefore := make(map[key]bool, len(before))
	for _, m := range before {
		inBefore[key{m.Source, m.Placement}] = true
	}
	inAfter := make(map[key]bool, len(after))
	for _, m := range after {
		inAfter[key{m.Source, m.Placement}] = true
	}

	for _, m := range before {
		if !inAfter[key{m.Source, m.Placement}] {
			removed = append(removed, m)
		}
	}
	for _, m := range after {
		if !inBefore[key{m.Source, m.Placement}] {
			added = append(added, m)
		}
	}
	return removed, added
}
