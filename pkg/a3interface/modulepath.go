package a3interface

/*
#cgo windows LDFLAGS: -lpsapi
#cgo linux LDFLAGS: -ldl

#ifndef _WIN32
#define _GNU_SOURCE
#endif
#include <stdlib.h>

#ifdef _WIN32
#define WIN32_LEAN_AND_MEAN
#include <windows.h>

static char* moduleFileName() {
	HMODULE mod = NULL;
	if (!GetModuleHandleExA(GET_MODULE_HANDLE_EX_FLAG_FROM_ADDRESS |
			GET_MODULE_HANDLE_EX_FLAG_UNCHANGED_REFCOUNT,
			(LPCSTR)moduleFileName, &mod)) {
		return NULL;
	}
	char* buf = (char*)malloc(MAX_PATH * 4);
	if (!buf) {
		return NULL;
	}
	DWORD n = GetModuleFileNameA(mod, buf, MAX_PATH * 4);
	if (n == 0 || n >= MAX_PATH * 4) {
		free(buf);
		return NULL;
	}
	return buf;
}
#else
#include <dlfcn.h>
#include <string.h>

static char* moduleFileName() {
	Dl_info info;
	if (dladdr((void*)moduleFileName, &info) == 0 || info.dli_fname == NULL) {
		return NULL;
	}
	return strdup(info.dli_fname);
}
#endif
*/
import "C"

import (
	"os"
	"path/filepath"
	"unsafe"
)

// ModuleDir returns the directory holding the loaded extension library.
// It falls back to the working directory when the loader cannot tell.
func ModuleDir() string {
	p := C.moduleFileName()
	if p == nil {
		wd, _ := os.Getwd()
		return wd
	}
	defer C.free(unsafe.Pointer(p))
	return filepath.Dir(C.GoString(p))
}
