package directory

import (
	"github.com/pkg/errors"
)

// Directory maps buildings to their community and admin chats. Built once at
// startup from config, read-only afterwards.
type Directory struct {
	order      []string
	chats      map[string]int64
	adminChats map[string]int64
	byChat     map[int64]string
}

func New(buildings []string, chats, adminChats map[string]int64) (*Directory, error) {
	byChat := make(map[int64]string, len(chats))
	for building, chatID := range chats {
		if other, ok := byChat[chatID]; ok {
			return nil, errors.Errorf(
				"buildings %q and %q share community chat %d", other, building, chatID,
			)
		}
		byChat[chatID] = building
	}

	d := &Directory{
		order:      append([]string(nil), buildings...),
		chats:      make(map[string]int64, len(chats)),
		adminChats: make(map[string]int64, len(adminChats)),
		byChat:     byChat,
	}
	for building, chatID := range chats {
		d.chats[building] = chatID
	}
	for building, chatID := range adminChats {
		d.adminChats[building] = chatID
	}

	return d, nil
}

// Buildings returns the configured picker order.
func (d *Directory) Buildings() []string {
	return append([]string(nil), d.order...)
}

func (d *Directory) CommunityChat(building string) (int64, bool) {
	chatID, ok := d.chats[building]
	return chatID, ok
}

func (d *Directory) AdminChat(building string) (int64, bool) {
	chatID, ok := d.adminChats[building]
	return chatID, ok
}

// BuildingByChat resolves a community chat back to its building. Chats that
// are not configured resolve to nothing, which callers treat as "not ours".
func (d *Directory) BuildingByChat(chatID int64) (string, bool) {
	building, ok := d.byChat[chatID]
	return building, ok
}

// ChatIDs returns every configured community chat, in picker order.
func (d *Directory) ChatIDs() []int64 {
	ids := make([]int64, 0, len(d.chats))
	for _, building := range d.order {
		if chatID, ok := d.chats[building]; ok {
			ids = append(ids, chatID)
		}
	}
	return ids
}
