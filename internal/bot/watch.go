package bot

import (
	"context"
	"fmt"
	"log"
	"time"

	tele "gopkg.in/telebot.v4"
)

// WatchBank follows the question bank and tells admin chats about its new size
// once it has been quiet for BankQuiet. The subscription is taken before it
// returns; the watching runs until ctx is done.
func (b *Bot) WatchBank(ctx context.Context) {
	updates, cancel := b.store.SubscribeQuestions()
	last := len(<-updates)

	go func() {
		defer cancel()
		current := last
		var quiet <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case qs, ok := <-updates:
				if !ok {
					return
				}
				current = len(qs)
				quiet = time.After(b.opts.BankQuiet)
			case <-quiet:
				quiet = nil
				if current == last {
					continue
				}
				log.Printf("Question bank changed: %d -> %d", last, current)
				for _, id := range b.opts.AdminChatIDs {
					b.send(&tele.Chat{ID: id}, fmt.Sprintf("📚 Ngân hàng câu hỏi hiện có %d câu (trước đó %d).", current, last))
				}
				last = current
			}
		}
	}()
}
