package services

// ResolvePrice arbitrates between the collaborator's floor price and the
// passenger's offered fare. Passengers may bid the fare up to attract drivers
// in thin supply, but never below the floor.
func ResolvePrice(floorPrice, offeredFare float64) float64 {
	if offeredFare > floorPrice {
		return offeredFare
	}
	return floorPrice
}
