package camera

/*
#cgo LDFLAGS: -lrt -lpthread

#include <stdlib.h>
#include <stdint.h>
#include <time.h>
#include <sys/mman.h>
#include <fcntl.h>
#include <unistd.h>
#include <string.h>
#include <semaphore.h>
#include <errno.h>

// Layout shared with the sensor ISP process (door_camera_shm.h).
#define DOOR_RING_SIZE 8
#define DOOR_MAX_FRAME (160 * 160 * 2)

typedef struct {
    uint64_t frame_number;
    struct timespec timestamp;
    int width;
    int height;
    int gain;          // sensor gain the ISP applied
    int exposure;      // sensor exposure the ISP applied
    size_t data_size;
    uint8_t data[DOOR_MAX_FRAME];
} DoorFrame;

typedef struct {
    volatile uint32_t write_index;
    uint8_t new_frame_sem[32];  // sem_t (32 bytes on Linux)
    DoorFrame frames[DOOR_RING_SIZE];
} DoorFrameRing;

static DoorFrameRing* door_open_shm(const char* name) {
    int fd = shm_open(name, O_RDWR, 0666);
    if (fd == -1) {
        return NULL;
    }
    DoorFrameRing* ring = (DoorFrameRing*)mmap(
        NULL, sizeof(DoorFrameRing),
        PROT_READ | PROT_WRITE,  // WRITE needed for sem_wait
        MAP_SHARED, fd, 0);
    close(fd);
    if (ring == MAP_FAILED) {
        return NULL;
    }
    return ring;
}

// Returns 0 on success, negative errno on timeout or failure.
static int door_wait_frame(DoorFrameRing* ring, int timeout_ms) {
    if (ring == NULL) {
        return -EINVAL;
    }
    struct timespec ts;
    if (clock_gettime(CLOCK_REALTIME, &ts) != 0) {
        return -errno;
    }
    ts.tv_sec += timeout_ms / 1000;
    ts.tv_nsec += (timeout_ms % 1000) * 1000000;
    if (ts.tv_nsec >= 1000000000) {
        ts.tv_sec += 1;
        ts.tv_nsec -= 1000000000;
    }
    if (sem_timedwait((sem_t*)&ring->new_frame_sem, &ts) == -1) {
        return -errno;
    }
    return 0;
}

static uint32_t door_write_index(DoorFrameRing* ring) {
    return ring->write_index;
}

static int door_read_frame(DoorFrameRing* ring, uint32_t index, DoorFrame* out) {
    if (index >= DOOR_RING_SIZE) {
        return -1;
    }
    memcpy(out, &ring->frames[index], sizeof(DoorFrame));
    return 0;
}

static void door_close_shm(DoorFrameRing* ring) {
    if (ring != NULL) {
        munmap((void*)ring, sizeof(DoorFrameRing));
    }
}
*/
import "C"
import (
	"fmt"
	"time"
	"unsafe"

	"github.com/kris2475/Image-Classification-using-TinyML/internal/logger"
	"github.com/kris2475/Image-Classification-using-TinyML/pkg/types"
)

const (
	shmMaxFrame    = 160 * 160 * 2
	shmWaitTimeout = 2 * time.Second
	shmOpenRetries = 30
)

// ShmSource reads RGB565 frames from the ring buffer the sensor ISP
// process publishes into shared memory.
type ShmSource struct {
	ring    *C.DoorFrameRing
	name    string
	width   int
	height  int
	tuning  Tuning
	warned  bool
	lastNum uint64
}

// OpenShm attaches to the named shared memory region, retrying while the
// ISP process comes up.
func OpenShm(name string, width, height int, tuning Tuning) (*ShmSource, error) {
	if name == "" {
		name = "/door_camera_stream"
	}

	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))

	var ring *C.DoorFrameRing
	for i := 0; i < shmOpenRetries; i++ {
		ring = C.door_open_shm(cName)
		if ring != nil {
			break
		}
		if i%5 == 0 {
			logger.Info("Camera", "Waiting for shared memory %s to appear... (%d/%d)", name, i+1, shmOpenRetries)
		}
		time.Sleep(1 * time.Second)
	}
	if ring == nil {
		return nil, fmt.Errorf("failed to open shared memory %s (timeout after %ds)", name, shmOpenRetries)
	}

	logger.Info("Camera", "Attached to %s (%dx%d, gain=%d exposure=%d)",
		name, width, height, tuning.Gain, tuning.Exposure)

	return &ShmSource{ring: ring, name: name, width: width, height: height, tuning: tuning}, nil
}

// Acquire blocks until the ISP publishes a frame, then copies it into a
// pooled buffer. Returns ErrNoFrame when the wait window elapses.
func (s *ShmSource) Acquire() (*types.RawFrame, error) {
	if s.ring == nil {
		return nil, fmt.Errorf("shared memory not open")
	}

	if rc := int(C.door_wait_frame(s.ring, C.int(shmWaitTimeout.Milliseconds()))); rc != 0 {
		if -rc == 110 { // ETIMEDOUT
			return nil, ErrNoFrame
		}
		return nil, fmt.Errorf("frame wait failed (errno %d)", -rc)
	}

	writeIndex := uint32(C.door_write_index(s.ring))
	if writeIndex == 0 {
		return nil, ErrNoFrame
	}
	index := (writeIndex - 1) % C.DOOR_RING_SIZE

	var cFrame C.DoorFrame
	if C.door_read_frame(s.ring, C.uint32_t(index), &cFrame) != 0 {
		return nil, fmt.Errorf("failed to read frame at index %d", index)
	}

	if err := checkGeometry(s.width, s.height, int(cFrame.data_size)); err != nil {
		return nil, err
	}
	if int(cFrame.width) != s.width || int(cFrame.height) != s.height {
		return nil, fmt.Errorf("ISP publishes %dx%d, source configured for %dx%d",
			int(cFrame.width), int(cFrame.height), s.width, s.height)
	}

	// The ISP reports the tuning it applied; a mismatch against the
	// deployed calibration invalidates the model's thresholds.
	if (int(cFrame.gain) != s.tuning.Gain || int(cFrame.exposure) != s.tuning.Exposure) && !s.warned {
		logger.Warn("Camera", "ISP tuning gain=%d exposure=%d differs from calibration gain=%d exposure=%d",
			int(cFrame.gain), int(cFrame.exposure), s.tuning.Gain, s.tuning.Exposure)
		s.warned = true
	}

	frame := getFrame(s.width, s.height)
	src := (*[shmMaxFrame]byte)(unsafe.Pointer(&cFrame.data[0]))[:cFrame.data_size:cFrame.data_size]
	copy(frame.Pix, src)
	frame.Timestamp = time.Unix(int64(cFrame.timestamp.tv_sec), int64(cFrame.timestamp.tv_nsec))
	frame.FrameNum = uint64(cFrame.frame_number)
	s.lastNum = frame.FrameNum
	return frame, nil
}

// Release returns the frame buffer to the pool.
func (s *ShmSource) Release(f *types.RawFrame) { putFrame(f) }

// Close detaches from the shared memory region.
func (s *ShmSource) Close() error {
	if s.ring != nil {
		C.door_close_shm(s.ring)
		s.ring = nil
	}
	return nil
}

var _ Source = (*ShmSource)(nil)
