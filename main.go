package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/tarm/serial"
)

// Minimal probe: open a port, print whatever arrives with a local
// receipt stamp. Handy for checking wiring and baudrate before
// starting a real capture with cmd/capture.
func main() {
	port, baudrate, timeout := "COM5", 115200, 30
	flag.StringVar(&port, "port", port, "Serial Port Name.")
	flag.IntVar(&timeout, "timeout", timeout, "Probing Duration (seconds)")
	flag.IntVar(&baudrate, "b", baudrate, "Serial Port Baudrate.")
	flag.Parse()

	if timeout <= 0 {
		fmt.Println("Timeout should be positive")
		return
	}
	if baudrate <= 0 {
		fmt.Println("Baudrate should be positive")
		return
	}

	log.Printf(
		"Starts probing %s on baudrate %d for %d seconds\n",
		port, baudrate, timeout)

	c := &serial.Config{Name: port, Baud: baudrate}
	stream, err := serial.OpenPort(c)
	if err != nil {
		log.Fatal(err)
	}

	duration := time.Duration(timeout) * time.Second
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(duration, func() {
		log.Println("Closing serial port stream")
		cancel()
		stream.Close()
	})
	defer cancel()
	defer stream.Close()

	dataCh := make(chan []byte, 1)
	errChan := make(chan error, 1)

	go func(ctx context.Context) {
		scanner := bufio.NewScanner(stream)
		for scanner.Scan() {
			dataCh <- append([]byte(nil), scanner.Bytes()...)
		}
		defer close(dataCh)
		defer close(errChan)
		select {
		case <-ctx.Done():
			log.Println("Scanner stopped")
			return
		default:
			log.Println("Stream was closed or an error occured")
			errChan <- scanner.Err()
		}
	}(ctx)

	for data := range dataCh {
		// stamp each line with the local receipt time, the same
		// cross-reference the acquisition pipeline records
		fmt.Printf("%.6f %s\n", float64(time.Now().UnixNano())/1e9, data)
	}
	log.Println("Finished probing")

	if err, open := <-errChan; open && err != nil {
		log.Fatal(err)
	}
}
