package bindings

// PairResultDTO is returned by a successful Pair.
type PairResultDTO struct {
	DeviceID string `json:"device_id"`
}

// StatusDTO is the pairing status. Site is null until the first pairing.
type StatusDTO struct {
	Site   *string `json:"site"`
	Paired bool    `json:"paired"`
}

// AppInfoDTO contains application version information.
type AppInfoDTO struct {
	Version   string `json:"version"`
	BuildTime string `json:"buildTime"`
}
