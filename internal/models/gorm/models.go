package gorm

// All returns every model the catalog migrates.
func All() []interface{} {
	return []interface{}{
		&Artwork{},
		&Artist{},
		&Domain{},
		&Technique{},
		&Period{},
		&Museum{},
		&ArtworkArtist{},
		&ArtworkDomain{},
		&ArtworkTechnique{},
		&ArtworkPeriod{},
		&SyncLog{},
		&SyncState{},
	}
}
