package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/go-redis/redis/v8"
)

// PubSubProvider определяет интерфейс для провайдеров публикации/подписки.
// Через него события комнат доходят до клиентов, подключенных к другим
// экземплярам сервиса.
type PubSubProvider interface {
	// Publish публикует сообщение в указанный канал
	Publish(channel string, message []byte) error

	// Subscribe подписывается на указанный канал и возвращает канал для сообщений
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)

	// Close закрывает все соединения и освобождает ресурсы
	Close() error
}

// NoOpPubSub реализует PubSubProvider для одиночного режима работы.
// Не выполняет реальных действий; используется, когда горизонтальное
// масштабирование отключено.
type NoOpPubSub struct{}

// Publish реализует метод PubSubProvider.Publish для NoOpPubSub
func (p *NoOpPubSub) Publish(channel string, message []byte) error {
	return nil
}

// Subscribe реализует метод PubSubProvider.Subscribe для NoOpPubSub
func (p *NoOpPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	// Возвращаем пустой канал, который никогда не получит сообщения
	msgCh := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(msgCh)
	}()
	return msgCh, nil
}

// Close реализует метод PubSubProvider.Close для NoOpPubSub
func (p *NoOpPubSub) Close() error {
	return nil
}

// RedisPubSub реализует PubSubProvider поверх Redis Pub/Sub
type RedisPubSub struct {
	client redis.UniversalClient
	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs []*redis.PubSub
}

// NewRedisPubSub создает новый Redis Pub/Sub провайдер
func NewRedisPubSub(client redis.UniversalClient) (*RedisPubSub, error) {
	ctx, cancel := context.WithCancel(context.Background())

	// Проверяем доступность Redis до того, как на него завязалась рассылка
	if err := client.Ping(ctx).Err(); err != nil {
		cancel()
		return nil, err
	}

	return &RedisPubSub{
		client: client,
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Publish публикует сообщение в указанный канал
func (p *RedisPubSub) Publish(channel string, message []byte) error {
	return p.client.Publish(p.ctx, channel, message).Err()
}

// Subscribe подписывается на канал и транслирует сообщения в возвращаемый канал
func (p *RedisPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := p.client.Subscribe(ctx, channel)

	// Дожидаемся подтверждения подписки
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	p.mu.Lock()
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	msgCh := make(chan []byte, 64)
	go func() {
		defer close(msgCh)
		redisCh := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-p.ctx.Done():
				return
			case msg, ok := <-redisCh:
				if !ok {
					return
				}
				select {
				case msgCh <- []byte(msg.Payload):
				default:
					log.Printf("[RedisPubSub] Переполнение буфера канала %s, сообщение отброшено", channel)
				}
			}
		}
	}()

	return msgCh, nil
}

// Close закрывает все подписки и останавливает провайдера
func (p *RedisPubSub) Close() error {
	p.cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, sub := range p.subs {
		if err := sub.Close(); err != nil {
			log.Printf("[RedisPubSub] Ошибка закрытия подписки: %v", err)
		}
	}
	p.subs = nil
	return nil
}
