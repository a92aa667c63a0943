package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerName      string `json:"player_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	SessionID       string   `json:"session_id"`
	Currency        string   `json:"currency"`
	ShopZones       []string `json:"shop_zones"`
	ItemsDigest     string   `json:"items_digest"`
}

// REQ (client -> server): one shop or admin command.
type ReqMsg struct {
	Type            string   `json:"type"`
	ProtocolVersion string   `json:"protocol_version"`
	ID              string   `json:"id"`
	Op              string   `json:"op"`
	Args            []string `json:"args,omitempty"`
}

// Request ops.
const (
	OpBuy      = "buy"
	OpSell     = "sell"
	OpSearch   = "search"
	OpPopulate = "populate"
	OpBalance  = "balance"
	OpModify   = "modify"
	OpReload   = "reload"
	OpRegion   = "region"
)

// REPLY (server -> client): outcome of a REQ.
type ReplyMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	ID              string         `json:"id"`
	OK              bool           `json:"ok"`
	Code            string         `json:"code,omitempty"`
	Message         string         `json:"message"`
	Data            map[string]any `json:"data,omitempty"`
}

// POS (client -> server): actor position in zone coordinates.
type PosMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	X               int    `json:"x"`
	Y               int    `json:"y"`
}

// SLOT (server -> client): one changed inventory slot.
type SlotMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Slot            int    `json:"slot"`
	Item            int    `json:"item"`
	Count           int    `json:"count"`
}
