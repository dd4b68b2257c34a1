package response

type PlatformStats struct {
	Users            int64 `json:"users"`
	Listings         int64 `json:"listings"`
	MarketplaceItems int64 `json:"marketplaceItems"`
	Reviews          int64 `json:"reviews"`
	PendingListings  int64 `json:"pendingListings"`
}

type UploadResponse struct {
	URLs []string `json:"urls"`
}
