/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package codenames

import (
	"fmt"
	"math/rand/v2"
)

// WordPool is the default pool boards are drawn from.
var WordPool = []string{
	"HORSE", "DOG", "CAT", "BEAR", "EAGLE", "SHARK", "WHALE", "SPIDER", "SNAKE", "TIGER",
	"DRAGON", "PHOENIX", "UNICORN", "BAT", "CROW", "PENGUIN", "OCTOPUS", "KANGAROO", "MOON", "SUN",
	"STAR", "FOREST", "MOUNTAIN", "OCEAN", "RIVER", "DESERT", "VOLCANO", "ICE", "STORM", "THUNDER",
	"RAINBOW", "CLOUD", "WAVE", "FIRE", "EARTH", "WIND", "TREE", "FLOWER", "KEY", "LOCK",
	"DOOR", "WINDOW", "MIRROR", "CLOCK", "BELL", "BOOK", "PEN", "PAPER", "GLASSES", "RING",
	"CROWN", "SWORD", "SHIELD", "BOW", "ARROW", "BOMB", "DIAMOND", "GOLD", "SILVER", "IRON",
	"STEEL", "GLASS", "ROPE", "CHAIN", "BRIDGE", "WALL", "TOWER", "CASTLE", "LONDON", "PARIS",
	"TOKYO", "EGYPT", "BRAZIL", "CHINA", "AFRICA", "AMERICA", "INDIA", "RUSSIA", "BANK", "SCHOOL",
	"HOSPITAL", "CHURCH", "TEMPLE", "PALACE", "PRISON", "THEATER", "MUSEUM", "AIRPORT", "APPLE", "ORANGE",
	"LEMON", "BERRY", "GRAPE", "PEACH", "CHERRY", "CAKE", "PIE", "BREAD", "BUTTER", "CHEESE",
	"WINE", "BEER", "COFFEE", "TEA", "SUGAR", "SALT", "PEPPER", "HONEY", "CHOCOLATE", "PIZZA",
	"STEAK", "FISH", "DOCTOR", "NURSE", "TEACHER", "SOLDIER", "POLICE", "PILOT", "CAPTAIN", "KING",
	"QUEEN", "PRINCE", "KNIGHT", "PIRATE", "NINJA", "SPY", "AGENT", "CHEF", "LAWYER", "JUDGE",
	"ARTIST", "ACTOR", "SINGER", "DANCER", "WRITER", "SCIENTIST", "ENGINEER", "BALL", "NET", "GOAL",
	"RACE", "GAME", "CARD", "DICE", "CHESS", "POOL", "GOLF", "TENNIS", "SOCCER", "HOCKEY",
	"BOXING", "MARATHON", "CAR", "TRUCK", "BUS", "TRAIN", "PLANE", "SHIP", "BOAT", "ROCKET",
	"BICYCLE", "HELICOPTER", "SUBMARINE", "TANK", "JET", "AMBULANCE", "TAXI", "HEART", "BRAIN", "EYE",
	"HAND", "FOOT", "ARM", "LEG", "HEAD", "BACK", "FACE", "TOOTH", "BONE", "BLOOD",
	"SKIN", "NAIL", "LOVE", "DEATH", "LIFE", "TIME", "SPACE", "POWER", "FORCE", "ENERGY",
	"SPIRIT", "SOUL", "DREAM", "FEAR", "HOPE", "LUCK", "CHANCE", "FATE", "DESTINY", "SECRET",
	"MYSTERY", "MAGIC", "WAR", "PEACE", "FREEDOM", "JUSTICE", "TRUTH", "COMPUTER", "PHONE", "SCREEN",
	"ROBOT", "LASER", "BATTERY", "WIRE", "CODE", "VIRUS", "NETWORK", "SATELLITE", "SIGNAL", "DATA",
	"WEB", "CHIP", "PIANO", "GUITAR", "DRUM", "VIOLIN", "TRUMPET", "OPERA", "JAZZ", "ROCK",
	"BAND", "SONG", "PAINT", "CANVAS", "SCULPTURE", "PORTRAIT", "GALLERY", "SUIT", "DRESS", "SHIRT",
	"PANTS", "SHOE", "HAT", "TIE", "BELT", "JACKET", "COAT", "GLOVE", "BOOT", "CAPE",
	"MASK", "UNIFORM", "RAIN", "SNOW", "FOG", "FROST", "HEAT", "COLD", "SPRING", "SUMMER",
	"FALL", "WINTER", "SHADOW", "LIGHT", "DARK", "NIGHT", "DAY", "DAWN", "DUSK", "SILENCE",
	"NOISE", "ECHO", "GHOST", "ANGEL", "DEMON", "VAMPIRE", "ZOMBIE", "WITCH", "WIZARD", "GIANT",
	"DWARF", "ELF", "ALIEN", "MONSTER", "HERO", "VILLAIN", "LEGEND",
}

// GenerateBoard draws BoardSize distinct words from pool in random order.
// Duplicate entries in pool are only ever drawn once.
func GenerateBoard(r *rand.Rand, pool []string) ([]string, error) {
	unique := make([]string, 0, len(pool))
	seen := make(map[string]bool, len(pool))
	for _, w := range pool {
		if seen[w] {
			continue
		}
		seen[w] = true
		unique = append(unique, w)
	}

	if len(unique) < BoardSize {
		return nil, fmt.Errorf("word pool holds %d distinct words, need at least %d", len(unique), BoardSize)
	}

	r.Shuffle(len(unique), func(i, j int) {
		unique[i], unique[j] = unique[j], unique[i]
	})

	return unique[:BoardSize:BoardSize], nil
}

// GenerateKey returns the shuffled secret key for a board: 9 cards for the
// starting team, 8 for the other team, 7 bystanders and 1 assassin.
func GenerateKey(r *rand.Rand, startingTeam Team) []CardType {
	key := make([]CardType, 0, BoardSize)

	for range startingAgents {
		key = append(key, cardTypeFor(startingTeam))
	}
	for range otherAgents {
		key = append(key, cardTypeFor(startingTeam.Other()))
	}
	for range bystanders {
		key = append(key, CardBystander)
	}
	for range assassins {
		key = append(key, CardAssassin)
	}

	r.Shuffle(len(key), func(i, j int) {
		key[i], key[j] = key[j], key[i]
	})

	return key
}

func PickStartingTeam(r *rand.Rand) Team {
	if r.IntN(2) == 0 {
		return Red
	}
	return Blue
}
