package gateway

// MediaKind distinguishes inbound attachment types.
type MediaKind string

const (
	MediaNone     MediaKind = ""
	MediaImage    MediaKind = "image"
	MediaDocument MediaKind = "document"
	MediaAudio    MediaKind = "audio"
)

// Message is one inbound message, flattened out of the webhook envelope.
type Message struct {
	ID        string
	From      string // sender phone number
	Name      string // sender profile name
	Text      string
	MediaID   string
	MediaKind MediaKind
	MediaMime string
	Caption   string
}

// Payload mirrors the webhook envelope the Cloud API posts.
type Payload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Contacts []struct {
					WaID    string `json:"wa_id"`
					Profile struct {
						Name string `json:"name"`
					} `json:"profile"`
				} `json:"contacts"`
				Messages []struct {
					ID   string `json:"id"`
					From string `json:"from"`
					Type string `json:"type"`
					Text struct {
						Body string `json:"body"`
					} `json:"text"`
					Image    *mediaRef `json:"image"`
					Document *mediaRef `json:"document"`
					Audio    *mediaRef `json:"audio"`
				} `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type mediaRef struct {
	ID       string `json:"id"`
	MimeType string `json:"mime_type"`
	Caption  string `json:"caption"`
}

// Messages flattens the envelope into the messages it carries, attaching the
// sender's profile name when the contacts block provides one.
func (p *Payload) Messages() []Message {
	var out []Message
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string)
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}
			for _, m := range change.Value.Messages {
				msg := Message{
					ID:   m.ID,
					From: m.From,
					Name: names[m.From],
					Text: m.Text.Body,
				}
				switch {
				case m.Image != nil:
					msg.MediaID, msg.MediaKind, msg.MediaMime, msg.Caption = m.Image.ID, MediaImage, m.Image.MimeType, m.Image.Caption
				case m.Document != nil:
					msg.MediaID, msg.MediaKind, msg.MediaMime, msg.Caption = m.Document.ID, MediaDocument, m.Document.MimeType, m.Document.Caption
				case m.Audio != nil:
					msg.MediaID, msg.MediaKind, msg.MediaMime = m.Audio.ID, MediaAudio, m.Audio.MimeType
				}
				out = append(out, msg)
			}
		}
	}
	return out
}
