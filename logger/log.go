package logger

import (
	"fmt"
)

var levels = map[string]int{
	"debug": 0,
	"info":  1,
	"error": 2,
}

var level string = "info"

func GetLevel() string {
	return level
}

func SetLevel(lvl string) {
	if lvl == "" {
		level = "debug"
	} else {
		level = lvl
	}
	Debugf("Set logger level to %v\n", level)
}

func enabled(lvl string) bool {
	return levels[lvl] >= levels[level]
}

func Debug(args ...interface{}) {
	if enabled("debug") {
		fmt.Println(args...)
	}
}

func Info(args ...interface{}) {
	if enabled("info") {
		fmt.Println(args...)
	}
}

func Error(args ...interface{}) {
	fmt.Println(args...)
}

func Debugf(template string, args ...interface{}) {
	if enabled("debug") {
		fmt.Printf(template, args...)
	}
}

func Infof(template string, args ...interface{}) {
	if enabled("info") {
		fmt.Printf(template, args...)
	}
}

func Errorf(template string, args ...interface{}) {
	fmt.Printf(template, args...)
}
