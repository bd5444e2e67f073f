package app

import "landlord/internal/domain"

// PlayersToStartGame is the number of occupied seats a landlord round needs.
const PlayersToStartGame = domain.PlayerCount
