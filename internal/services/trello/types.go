package trello

// Card is a board card
type Card struct {
	ID     string  `json:"id"`
	Name   string  `json:"name"`
	Desc   string  `json:"desc"`
	IDList string  `json:"idList"`
	Labels []Label `json:"labels"`
}

// Label is a card label
type Label struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Attachment is a link attached to a card
type Attachment struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Board is the subset of a board the service needs
type Board struct {
	ID        string `json:"id"`
	ShortLink string `json:"shortLink"`
	Name      string `json:"name"`
}

// Webhook is a registered board webhook
type Webhook struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	IDModel     string `json:"idModel"`
	CallbackURL string `json:"callbackURL"`
	Active      bool   `json:"active"`
}

// WebhookPayload is the body Trello posts to the callback URL
type WebhookPayload struct {
	Action Action `json:"action" validate:"required"`
}

// Action describes one board change
type Action struct {
	ID   string     `json:"id" validate:"required"`
	Type string     `json:"type" validate:"required"`
	Data ActionData `json:"data"`
}

// ActionData holds the models touched by an action
type ActionData struct {
	Card       *ActionCard `json:"card,omitempty"`
	ListBefore *ActionList `json:"listBefore,omitempty"`
	ListAfter  *ActionList `json:"listAfter,omitempty"`
}

// ActionCard identifies the card of an action
type ActionCard struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ActionList identifies a list of an action
type ActionList struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
