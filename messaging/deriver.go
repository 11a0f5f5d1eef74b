package messaging

import (
	"sort"

	"github.com/jrozner/roomboard/web/model"
)

// Thread is one derived conversation as seen by a single user.
type Thread struct {
	Key           model.ConversationKey
	Latest        model.Message
	OtherUserID   uint64
	UnreadCount   int64
	TotalMessages int64
}

// Derive groups a user's message log into conversations, newest activity
// first. unread holds the user's unread counts per conversation as counted by
// the message store; conversations absent from it have none.
//
// Messages are grouped by their conversation key (unordered participant pair
// plus normalised related entity), so arrival order and direction never
// matter. The latest message of a thread is the one with the greatest
// created_at, ties going to the greater id. Messages that userID neither sent
// nor received are ignored.
func Derive(userID uint64, messages []model.Message, unread map[model.ConversationKey]int64) []Thread {
	index := make(map[model.ConversationKey]int)
	threads := make([]Thread, 0)

	for _, message := range messages {
		if message.SenderID != userID && message.ReceiverID != userID {
			continue
		}

		key := message.Key()
		i, ok := index[key]
		if !ok {
			i = len(threads)
			index[key] = i
			threads = append(threads, Thread{Key: key, Latest: message, UnreadCount: unread[key]})
		}

		thread := &threads[i]
		thread.TotalMessages++
		if message.After(thread.Latest) {
			thread.Latest = message
		}
	}

	for i := range threads {
		threads[i].OtherUserID = threads[i].Latest.Other(userID)
	}

	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].Latest.After(threads[j].Latest)
	})

	return threads
}
