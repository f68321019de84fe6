package a3interface

/*
#include <stdlib.h>
#include <stdio.h>
#include <string.h>

typedef int (*extensionCallback)(char const *name, char const *function, char const *data);
typedef int (*extensionQuery)(char const *function, char const *data, char *output, int outputSize);

static inline int runExtensionCallback(extensionCallback fnc, char const *name, char const *function, char const *data)
{
	return fnc(name, function, data);
}

static inline int runExtensionQuery(extensionQuery fnc, char const *function, char const *data, char *output, int outputSize)
{
	return fnc(function, data, output, outputSize);
}
*/
import "C"
import (
	"errors"
	"fmt"
	"sync"
	"time"
	"unsafe"

	"github.com/dmt-mods/placement/internal/dispatcher"
)

// ErrNoCallback is returned when the host has not registered a callback yet.
var ErrNoCallback = errors.New("no extension callback registered")

// ErrNoQuery is returned when the host has not registered a query function yet.
var ErrNoQuery = errors.New("no extension query registered")

var (
	hostMu     sync.RWMutex
	callbackFn C.extensionCallback
	queryFn    C.extensionQuery
)

// called by the host to get the version of the extension
//
//export RVExtensionVersion
func RVExtensionVersion(output *C.char, outputsize C.size_t) {
	replyToSyncCall(Config.rvExtensionVersion, output, outputsize)
}

// called by the host in the form "extension" callExtension "command|arg|arg"
//
//export RVExtension
func RVExtension(output *C.char, outputsize C.size_t, input *C.char) {
	command, args := splitCommand(C.GoString(input))
	replyToSyncCall(dispatch(command, args), output, outputsize)
}

// called by the host in the form "extension" callExtension ["command", [args]]
//
//export RVExtensionArgs
func RVExtensionArgs(output *C.char, outputsize C.size_t, input *C.char, argv **C.char, argc C.int) {
	command := C.GoString(input)
	replyToSyncCall(dispatch(command, parseArgsFromC(argv, argc)), output, outputsize)
}

//export RVExtensionRegisterCallback
func RVExtensionRegisterCallback(fnc C.extensionCallback) {
	hostMu.Lock()
	callbackFn = fnc
	hostMu.Unlock()
}

//export RVExtensionRegisterQuery
func RVExtensionRegisterQuery(fnc C.extensionQuery) {
	hostMu.Lock()
	queryFn = fnc
	hostMu.Unlock()
}

func dispatch(command string, args []string) string {
	d := Config.dispatcher
	if d == nil || !d.HasHandler(command) {
		return formatDispatchResponse(nil, fmt.Errorf("no handler registered: %s", command))
	}
	result, err := d.Dispatch(dispatcher.Event{
		Command:   command,
		Args:      args,
		Timestamp: time.Now(),
	})
	return formatDispatchResponse(result, err)
}

// WriteCallback sends function with JSON-encoded args to the host callback.
func WriteCallback(function string, args ...any) error {
	hostMu.RLock()
	fnc := callbackFn
	hostMu.RUnlock()
	if fnc == nil {
		return ErrNoCallback
	}

	data, err := EncodeArgs(args...)
	if err != nil {
		return err
	}

	cName := C.CString(Config.extensionName)
	defer C.free(unsafe.Pointer(cName))
	cFunction := C.CString(function)
	defer C.free(unsafe.Pointer(cFunction))
	cData := C.CString(data)
	defer C.free(unsafe.Pointer(cData))

	if rc := C.runExtensionCallback(fnc, cName, cFunction, cData); rc < 0 {
		return fmt.Errorf("host rejected callback %s: %d", function, int(rc))
	}
	return nil
}

// Query asks the host a synchronous question and returns its raw reply.
func Query(function string, args ...any) (string, error) {
	hostMu.RLock()
	fnc := queryFn
	hostMu.RUnlock()
	if fnc == nil {
		return "", ErrNoQuery
	}

	data, err := EncodeArgs(args...)
	if err != nil {
		return "", err
	}

	cFunction := C.CString(function)
	defer C.free(unsafe.Pointer(cFunction))
	cData := C.CString(data)
	defer C.free(unsafe.Pointer(cData))
	buf := (*C.char)(C.malloc(C.size_t(outputSize)))
	defer C.free(unsafe.Pointer(buf))

	n := C.runExtensionQuery(fnc, cFunction, cData, buf, C.int(outputSize))
	if n < 0 {
		return "", fmt.Errorf("host query %s failed: %d", function, int(n))
	}
	if int(n) >= outputSize {
		n = C.int(outputSize - 1)
	}
	return C.GoStringN(buf, n), nil
}

// Host exposes the package-level callback and query functions as a value.
type Host struct{}

func (Host) Call(function string, args ...any) error { return WriteCallback(function, args...) }

func (Host) Query(function string, args ...any) (string, error) { return Query(function, args...) }

// parseArgsFromC converts C argv array to Go string slice
func parseArgsFromC(argv **C.char, argc C.int) []string {
	offset := unsafe.Sizeof(uintptr(0))
	data := make([]string, 0, int(argc))
	for index := C.int(0); index < argc; index++ {
		data = append(data, C.GoString(*argv))
		argv = (**C.char)(unsafe.Pointer(uintptr(unsafe.Pointer(argv)) + offset))
	}
	return data
}

// replyToSyncCall copies response into the host's output buffer, truncating if needed.
func replyToSyncCall(response string, output *C.char, outputsize C.size_t) {
	result := C.CString(response)
	defer C.free(unsafe.Pointer(result))
	size := C.strlen(result) + 1
	if size > outputsize {
		size = outputsize
	}
	C.memmove(unsafe.Pointer(output), unsafe.Pointer(result), size)
}
