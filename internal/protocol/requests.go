package protocol

// Ack is the generic acknowledgement for requests that only report success.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type JoinRoomRequest struct {
	RoomCode   string `json:"roomCode"`
	PlayerName string `json:"playerName"`
}

// JoinRoomAck doubles as the rejoin acknowledgement: when the room already
// has a game in progress, GameState describes it.
type JoinRoomAck struct {
	Success    bool           `json:"success"`
	Message    string         `json:"message,omitempty"`
	RoomCode   string         `json:"roomCode"`
	Players    []Player       `json:"players"`
	WordLength int            `json:"wordLength,omitempty"`
	GameState  *RoomGameState `json:"gameState,omitempty"`
}

// RoomGameState is the server's view of a room's game at join time.
type RoomGameState struct {
	IsRoundActive   bool      `json:"isRoundActive"`
	Round           int       `json:"round"`
	CurrentWord     *WordInfo `json:"currentWord,omitempty"`
	RoundEndTime    *int64    `json:"roundEndTime,omitempty"`
	PlayersFinished []string  `json:"playersFinished,omitempty"`
	GameOver        bool      `json:"gameOver,omitempty"`
	Winner          *Player   `json:"winner,omitempty"`
}

// WordInfo exposes only the length of the secret word.
type WordInfo struct {
	Length int `json:"length"`
}

type CreateRoomRequest struct {
	PlayerName string `json:"playerName"`
}

type CreateRoomAck struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	RoomCode string `json:"roomCode"`
}

// RoomRequest is the payload of every request that only names a room:
// startGame, playAgain, leaveRoom and requestNextSinglePlayerRound.
type RoomRequest struct {
	RoomCode string `json:"roomCode"`
}

type SubmitGuessRequest struct {
	RoomCode string `json:"roomCode"`
	Guess    string `json:"guess"`
}

type CreateSinglePlayerGameRequest struct {
	WordLength int `json:"wordLength"`
}
