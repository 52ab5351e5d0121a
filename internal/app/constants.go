package app

import "blockus/internal/domain"

// PlayersToStartGame is the number of occupied seats a game needs. Every color
// must be owned by someone, human or bot.
const PlayersToStartGame = domain.NumColors

// NoWinner is the winner seat reported when the top score is shared.
const NoWinner = -1
