package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/IBM/sarama"

	"github.com/ctf-scoreboard/internal/domain"
)

// eventMix weights the synthetic event types; submissions dominate during a
// live game.
var eventMix = []struct {
	eventType domain.GameEventType
	weight    int
}{
	{domain.EventSubmissionAccepted, 80},
	{domain.EventParticipationStatusChanged, 10},
	{domain.EventChallengeUpdated, 8},
	{domain.EventGameUpdated, 2},
}

func pickEventType() domain.GameEventType {
	n := rand.Intn(100)
	for _, m := range eventMix {
		if n < m.weight {
			return m.eventType
		}
		n -= m.weight
	}
	return domain.EventSubmissionAccepted
}

func main() {
	// Command line flags
	brokers := flag.String("brokers", "localhost:9094", "Kafka brokers (comma-separated)")
	topic := flag.String("topic", "scoreboard-events", "Kafka topic")
	games := flag.Int("games", 3, "Number of games to spread events over, ids 1..n")
	challenges := flag.Int("challenges", 20, "Challenges per game")
	teams := flag.Int("teams", 200, "Participations per game")
	eventsPerSecond := flag.Int("rate", 20, "Events per second")
	duration := flag.Duration("duration", 0, "Duration to run (0 = forever)")
	flag.Parse()

	if *games <= 0 || *challenges <= 0 || *teams <= 0 || *eventsPerSecond <= 0 {
		log.Fatal("games, challenges, teams and rate must be positive")
	}
	brokerList := strings.Split(*brokers, ",")

	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println("  Scoreboard Event Producer")
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Printf("  Brokers:          %s\n", *brokers)
	fmt.Printf("  Topic:            %s\n", *topic)
	fmt.Printf("  Games:            %d\n", *games)
	fmt.Printf("  Events/sec:       %d\n", *eventsPerSecond)
	fmt.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
	fmt.Println()

	// Configure Sarama producer
	config := sarama.NewConfig()
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 100 * time.Millisecond
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(brokerList, config)
	if err != nil {
		log.Fatalf("Failed to create producer: %v", err)
	}

	var sent, failed, produced atomic.Int64
	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		for range producer.Successes() {
			sent.Add(1)
		}
	}()
	go func() {
		defer wg.Done()
		for err := range producer.Errors() {
			failed.Add(1)
			log.Printf("Producer error: %v", err)
		}
	}()

	shutdown := func(reason string) {
		fmt.Printf("\n%s, shutting down...\n", reason)
		producer.AsyncClose()
		wg.Wait()
		fmt.Printf("Completed. Produced: %d, Sent: %d, Errors: %d\n", produced.Load(), sent.Load(), failed.Load())
	}

	// Events for one game share a key so they stay ordered on one partition
	send := func(event domain.GameEvent) {
		data, err := json.Marshal(event)
		if err != nil {
			log.Printf("Failed to marshal event: %v", err)
			return
		}
		producer.Input() <- &sarama.ProducerMessage{
			Topic: *topic,
			Key:   sarama.StringEncoder(strconv.FormatInt(event.GameID, 10)),
			Value: sarama.ByteEncoder(data),
		}
		produced.Add(1)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(time.Second / time.Duration(*eventsPerSecond))
	defer ticker.Stop()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

	var endTime time.Time
	if *duration > 0 {
		endTime = time.Now().Add(*duration)
	}

	fmt.Println("Press Ctrl+C to stop")
	for {
		select {
		case <-sigChan:
			shutdown("Interrupted")
			return

		case now := <-ticker.C:
			if !endTime.IsZero() && now.After(endTime) {
				shutdown("Duration reached")
				return
			}

			event := domain.GameEvent{
				Type:      pickEventType(),
				GameID:    int64(rand.Intn(*games) + 1),
				Timestamp: now.UTC(),
			}
			switch event.Type {
			case domain.EventSubmissionAccepted:
				event.ChallengeID = int64(rand.Intn(*challenges) + 1)
				event.ParticipationID = int64(rand.Intn(*teams) + 1)
			case domain.EventParticipationStatusChanged:
				event.ParticipationID = int64(rand.Intn(*teams) + 1)
			case domain.EventChallengeUpdated:
				event.ChallengeID = int64(rand.Intn(*challenges) + 1)
			}
			send(event)

		case <-statsTicker.C:
			fmt.Printf("[%s] Produced: %d | Sent: %d | Errors: %d\n",
				time.Now().Format("15:04:05"),
				produced.Load(),
				sent.Load(),
				failed.Load(),
			)
		}
	}
}
