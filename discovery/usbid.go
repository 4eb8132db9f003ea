//go:build linux

package discovery

import (
	"bufio"
	"os"
	"strconv"
	"strings"
	"sync"
)

// usbIDPaths lists the standard locations for the system's USB ID
// database, used to turn a bare vendor/product id pair into a readable
// name for PollHID's log lines.
var usbIDPaths = []string{
	"/usr/share/hwdata/usb.ids",
	"/var/lib/usbutils/usb.ids",
	"/usr/share/misc/usb.ids",
}

// usbIDDatabase caches vendor/product names parsed from a usb.ids file.
type usbIDDatabase struct {
	mu       sync.RWMutex
	vendors  map[uint16]string
	products map[uint32]string
	loaded   bool
}

func newUSBIDDatabase() *usbIDDatabase {
	return &usbIDDatabase{
		vendors:  make(map[uint16]string),
		products: make(map[uint32]string),
	}
}

// load parses the first usb.ids file found on usbIDPaths. Idempotent;
// returns false (without retrying) if no database file is present.
func (db *usbIDDatabase) load() bool {
	db.mu.Lock()
	defer db.mu.Unlock()
	if db.loaded {
		return len(db.vendors) > 0
	}
	db.loaded = true

	for _, path := range usbIDPaths {
		file, err := os.Open(path)
		if err != nil {
			continue
		}
		db.parse(file)
		file.Close()
		return true
	}
	return false
}

func (db *usbIDDatabase) parse(file *os.File) {
	scanner := bufio.NewScanner(file)
	var currentVID uint16
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		if line[0] == '\t' {
			if currentVID == 0 || len(line) < 7 {
				continue
			}
			line = line[1:]
			pid, err := strconv.ParseUint(line[:4], 16, 16)
			if err != nil || line[4] != ' ' {
				continue
			}
			key := (uint32(currentVID) << 16) | uint32(pid)
			db.products[key] = strings.TrimLeft(line[5:], " ")
			continue
		}
		if len(line) < 6 {
			currentVID = 0
			continue
		}
		vid, err := strconv.ParseUint(line[:4], 16, 16)
		if err != nil {
			currentVID = 0
			continue
		}
		currentVID = uint16(vid)
		if line[4] == ' ' {
			db.vendors[currentVID] = strings.TrimLeft(line[5:], " ")
		}
	}
}

func (db *usbIDDatabase) vendorName(vid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.vendors[vid]
}

func (db *usbIDDatabase) productName(vid, pid uint16) string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return db.products[(uint32(vid)<<16)|uint32(pid)]
}
