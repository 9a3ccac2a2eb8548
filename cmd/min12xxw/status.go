package main

import (
	"context"
	"fmt"
	"time"

	"github.com/schillm/min12xxw/device"
	"github.com/schillm/min12xxw/devopen"
)

// statusTimeout bounds the whole query; each of the four registers
// gets up to retryAttempts*retryDelay inside device.Query, so this is
// a generous outer backstop, not the primary timeout mechanism.
const statusTimeout = 30 * time.Second

// runStatus opens devicePath, runs the status query (§4.5) and prints
// a short human-readable report, matching the reference driver's
// print_status_report field order.
func runStatus(devicePath string, model byte) error {
	dev, err := devopen.Open(devicePath)
	if err != nil {
		return err
	}
	defer dev.Close()

	ctx, cancel := context.WithTimeout(context.Background(), statusTimeout)
	defer cancel()

	st, err := device.Query(ctx, dev, model)
	if err != nil {
		return err
	}

	fmt.Printf("status: %s\n", st.StatusString)
	fmt.Printf("controller firmware version: %s\n", st.ControllerFirmware)
	if st.EngineFirmware != "" {
		fmt.Printf("engine firmware version: %s\n", st.EngineFirmware)
	}
	fmt.Printf("page counter: %d\n", st.PageCount)
	return nil
}
